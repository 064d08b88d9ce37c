package main

import (
	"os"

	"github.com/shge/meet-notify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
