// Package config loads the server configuration from environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

// Config holds runtime settings for the server.
type Config struct {
	Port       string
	LogLevel   slog.Level
	BcryptCost int

	Backend string

	// SQLite
	DatabasePath string

	// Firestore
	FirestoreProjectID  string
	CredentialsFile     string
	FirestoreCollection string
}

// Load reads the configuration from the environment and validates it.
//
//	PORT                            listen port (8080)
//	LOG_LEVEL                       debug, info, warn or error (info)
//	BCRYPT_COST                     4..14 (10)
//	STORE_BACKEND                   firestore or sqlite (firestore)
//	DATABASE_PATH                   SQLite file (userdata.db)
//	FIRESTORE_PROJECT_ID            Google Cloud project, detected when empty
//	GOOGLE_APPLICATION_CREDENTIALS  service account key file
//	FIRESTORE_COLLECTION            record collection (data)
func Load() (*Config, error) {
	cfg := &Config{
		Port:                envOrDefault("PORT", "8080"),
		Backend:             strings.ToLower(envOrDefault("STORE_BACKEND", BackendFirestore)),
		DatabasePath:        envOrDefault("DATABASE_PATH", "userdata.db"),
		FirestoreProjectID:  os.Getenv("FIRESTORE_PROJECT_ID"),
		CredentialsFile:     os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreCollection: envOrDefault("FIRESTORE_COLLECTION", "data"),
		BcryptCost:          10,
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost)
	}
	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}

	switch c.Backend {
	case BackendFirestore:
		if c.FirestoreCollection == "" {
			return errors.New("FIRESTORE_COLLECTION must not be empty")
		}
	case BackendSQLite:
		if c.DatabasePath == "" {
			return errors.New("DATABASE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Backend)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
