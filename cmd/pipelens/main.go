// Package main provides the CLI for the pipelens pipeline inventory.
package main

import (
	"os"

	"github.com/pipelens-labs/pipelens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
