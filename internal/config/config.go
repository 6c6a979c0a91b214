// Package config loads environment and file based settings.
package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LoadEnv reads a .env file into the process environment when present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found (using environment variables)")
	}
}
