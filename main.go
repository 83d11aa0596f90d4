// Package main provides the entry point for the pcb-router command.
package main

import (
	"os"

	"pcb-router/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
