package main

import (
	"fmt"
	"os"

	"tripbot/cmd"
	"tripbot/config"
)

func main() {
	config.Load()

	if err := cmd.RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
