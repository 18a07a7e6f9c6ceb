package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mercascan/mercascan/cmd/mercascan/commands"
)

func main() {
	// Best effort: a missing .env file is the normal case.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
