package main

import (
	"flag"
	"os"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes", "scenes", "Directory of glTF scenes to offer")
	flag.Parse()

	logger := core.NewDefaultLogger("web")
	webServer := server.NewServer(*port, *scenesDir, logger)

	logger.Printf("Weekend Raytracer Web Server")
	logger.Printf("Try http://localhost:%d/api/scenes", *port)

	if err := webServer.Start(); err != nil {
		logger.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
