package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SafeEnv returns the environment variable value for key, or fallback if empty.
func SafeEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// EnvInt parses key as an integer; unset or malformed values yield fallback.
func EnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(SafeEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// EnvBool accepts the usual strconv.ParseBool spellings.
func EnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(SafeEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// EnvDuration accepts Go duration strings ("90m", "24h").
func EnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(SafeEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
