package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/vidlearn/genai-relay/cmd/cli/commands"
)

func main() {
	// Load .env if present so the server address and secret can come from it
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
