// Package main provides the entry point for the hitpager CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/hitpager/cmd/hitpager/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
