package main

import (
	"os"

	"paykit/cmd/paykit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
