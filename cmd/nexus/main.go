package main

import (
	"os"

	"nexus/cmd/nexus/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
