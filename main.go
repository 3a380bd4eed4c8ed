package main

import (
	"log"

	"github.com/MyelinBots/wellness-sync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
