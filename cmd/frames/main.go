// Package main provides the frames CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/frames/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
