package main

import (
	"os"

	"piqrypt/cmd/piqrypt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
