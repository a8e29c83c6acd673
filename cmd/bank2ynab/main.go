package main

import (
	"os"

	"github.com/mokshasoul/bank2ynab/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
