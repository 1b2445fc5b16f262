// Package main provides the CLI for the leapdetail SQL rewriter.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdetail/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
