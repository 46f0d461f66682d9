// Package main provides the entry point for the indexprep CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/indexprep/cmd/indexprep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
