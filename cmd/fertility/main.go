package main

import (
	"log"

	"github.com/terraincognita07/fertility/internal/cli"
	"github.com/terraincognita07/fertility/internal/config"
)

func main() {
	cfg := config.Load()
	if err := cli.NewRootCommand(cfg).Execute(); err != nil {
		log.Fatalf("fertility: %v", err)
	}
}
