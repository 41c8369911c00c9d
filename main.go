// Package main is the entry point for the supatodo CLI.
package main

import (
	"supatodo/cli/cmd"
)

func main() {
	cmd.Execute()
}
