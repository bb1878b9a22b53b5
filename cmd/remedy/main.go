package main

import (
	"os"

	"github.com/moolen/remedy/cmd/remedy/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
