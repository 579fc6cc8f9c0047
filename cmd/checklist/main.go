// Package main provides the CLI entry point for the steershaft checklist.
package main

import (
	"os"

	"github.com/robertguss/steershaft-checklist/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
