// Package main provides the entry point for cachelet-cli.
//
// cachelet-cli is the command-line client for Cachelet.
package main

import (
	"fmt"
	"os"

	"github.com/tvarn/cachelet-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
