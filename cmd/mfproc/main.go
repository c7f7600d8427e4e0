// Package main implements the mfproc CLI. It builds multi-function procedures from
// YAML descriptions, validates them and exports them for debugging.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/l3aro/go-multifn/cmd/mfproc/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version

	if err := commands.Execute(); err != nil {
		if !errors.Is(err, commands.ErrInvalid) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
