package main

import (
	"log"

	"github.com/jonesrussell/notion-cache/internal/app"
	"github.com/jonesrussell/notion-cache/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to assemble application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
