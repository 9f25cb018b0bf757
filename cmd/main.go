package main

import (
	"os"

	"github.com/yaroph/connect/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
