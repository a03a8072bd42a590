// Package main provides the LeapChart CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapchart/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
