package main

import (
	"log"

	"github.com/MrSnakeDoc/tally/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ tally failed to start: %v", err)
	}
}
