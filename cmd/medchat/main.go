package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/medogram/medchat/internal/cli"
)

func main() {
	// Optional .env for backend overrides (MEDCHAT_API_BASE_URL etc.).
	// Absence is fine; the system environment still applies.
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	cli.Execute()
}
