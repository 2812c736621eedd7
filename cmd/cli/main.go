package main

import (
	"os"

	"github.com/clipnest/clipnest/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
