package main

import (
	"os"

	"github.com/flowdeckhq/flowdeck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
