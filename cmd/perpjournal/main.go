package main

import (
	"os"

	"github.com/rustyeddy/perpjournal/cmd/perpjournal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
