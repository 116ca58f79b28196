// Package main is the entry point of the idrecon operator CLI.
package main

import (
	"os"

	cli "idrecon/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
