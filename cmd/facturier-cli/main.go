// Package main is the entrypoint for the facturier CLI.
package main

import (
	"fmt"
	"os"

	"github.com/facturier/facturier/cmd/facturier-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
