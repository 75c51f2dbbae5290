package main

import (
	"os"

	"github.com/gossipchain/gossipchain/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
