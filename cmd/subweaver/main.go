package main

import (
	"os"

	"github.com/subweaver/subweaver/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
