// Package main is the entry point for the budget binary.
package main

import (
	"os"

	"budget/cmd/budget/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
