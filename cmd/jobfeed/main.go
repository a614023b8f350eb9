package main

import (
	"log"

	"github.com/MrSnakeDoc/jobfeed/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ jobfeed failed to start: %v", err)
	}
}
