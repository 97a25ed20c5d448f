package main

import (
	"os"

	"github.com/sid-lpcd/travel-chrome-extension/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
