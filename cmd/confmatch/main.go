package main

import "os"

// build metadata - set via ldflags during release
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
