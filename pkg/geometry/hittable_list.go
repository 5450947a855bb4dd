package geometry

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// HittableList is the scene aggregate: an insertion-ordered set of shapes
// tested by linear scan.
type HittableList struct {
	shapes []Shape
}

// NewHittableList creates a list holding the given shapes in order
func NewHittableList(shapes ...Shape) *HittableList {
	list := &HittableList{}
	list.Add(shapes...)
	return list
}

// Add appends shapes to the list
func (l *HittableList) Add(shapes ...Shape) {
	l.shapes = append(l.shapes, shapes...)
}

// Shapes returns the shapes in insertion order
func (l *HittableList) Shapes() []Shape {
	return l.shapes
}

// Len returns the number of shapes
func (l *HittableList) Len() int {
	return len(l.shapes)
}

// Hit returns the closest intersection over all shapes.
// Each candidate must beat closestSoFar strictly, so for equal t the shape
// added first wins.
func (l *HittableList) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closestHit *material.HitRecord
	closestSoFar := tMax

	for _, shape := range l.shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}
