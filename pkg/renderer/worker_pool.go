package renderer

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// PixelResult is one finished pixel sent from a worker to the aggregator
type PixelResult struct {
	X, Y int
	RGB  [3]uint8
}

// spanTask is a contiguous range [Start, End) of flat pixel indices
type spanTask struct {
	Start, End int
}

// pixelWorkFunc computes one flat pixel index. It runs on a worker
// goroutine and must only touch state owned by that worker.
type pixelWorkFunc func(index int) PixelResult

// WorkerPool hands spans of the image to a fixed set of workers and streams
// their pixels back over a single results channel
type WorkerPool struct {
	taskQueue   chan spanTask
	resultQueue chan PixelResult
	numWorkers  int
}

// NewWorkerPool queues every span of [0, total) up front
func NewWorkerPool(total, chunkSize, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	// A span never exceeds the image, and neither does the result buffer
	chunkSize = max(1, min(chunkSize, total))

	numTasks := (total + chunkSize - 1) / chunkSize
	wp := &WorkerPool{
		taskQueue:   make(chan spanTask, numTasks), // Buffer for every span
		resultQueue: make(chan PixelResult, chunkSize),
		numWorkers:  numWorkers,
	}

	for start := 0; start < total; start += chunkSize {
		wp.taskQueue <- spanTask{Start: start, End: min(start+chunkSize, total)}
	}
	close(wp.taskQueue) // No more tasks

	return wp
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Start launches the workers. newWorker is called once per worker to build
// that worker's private pixel function. Results arrive on the returned channel,
// which is closed after every worker has returned; wait then yields the first
// worker error, if any.
func (wp *WorkerPool) Start(ctx context.Context, newWorker func(id int) pixelWorkFunc) (results <-chan PixelResult, wait func() error) {
	g, gctx := errgroup.WithContext(ctx)

	for id := 0; id < wp.numWorkers; id++ {
		g.Go(func() error {
			return wp.run(gctx, id, newWorker)
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(wp.resultQueue)
	}()

	return wp.resultQueue, func() error { return <-done }
}

// run is the main worker loop
func (wp *WorkerPool) run(ctx context.Context, id int, newWorker func(id int) pixelWorkFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: worker %d: %v", ErrWorkerFailed, id, r)
		}
	}()

	work := newWorker(id)
	for task := range wp.taskQueue {
		for index := task.Start; index < task.End; index++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := work(index)
			select {
			case wp.resultQueue <- result:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
