package main

import (
	"os"

	"github.com/rubrical-studios/gh-gfi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
