package utils

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// LoadEnv loads variables from a .env file if one exists. Missing files are
// fine; system environment variables always win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using system environment variables only")
		return
	}
	log.Info("Loaded environment variables from .env")
}

// GetEnv returns the variable's value or the fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvInt returns the variable parsed as int, or the fallback.
func GetEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warnf("Invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

// GetEnvFloat returns the variable parsed as float64, or the fallback.
func GetEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warnf("Invalid number for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return f
}

// GetEnvBool returns the variable parsed as bool, or the fallback.
func GetEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warnf("Invalid boolean for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return b
}
