package main

import (
	"log"

	"doorcam/internal/app"
)

func main() {
	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to start door camera: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Door camera stopped: %v", err)
	}
}
