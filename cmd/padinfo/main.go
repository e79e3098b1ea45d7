// Command padinfo serves Puzzle & Dragons monster lookups over Discord and
// HTTP, and answers one-off queries from the command line.
package main

import (
	"os"

	"github.com/MrWong99/padinfo/cmd/padinfo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
