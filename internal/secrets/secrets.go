package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Suffix for the file-indirection variant of a secret variable. When
// GEMINI_API_KEY_FILE is set, the key is read from that file instead of
// the plain environment variable (Docker/Kubernetes mounted secrets).
const fileSuffix = "_FILE"

// Resolve returns the secret value for envKey. A <envKey>_FILE variable
// pointing at a mounted secret file takes precedence over the plain
// variable; the file contents are returned with surrounding whitespace
// trimmed. An unset secret resolves to the empty string without error.
func Resolve(envKey string) (string, error) {
	if path := os.Getenv(envKey + fileSuffix); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret file %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return os.Getenv(envKey), nil
}

// Optional resolves envKey, falling back to fallback when the secret is
// unset or its backing file cannot be read. It never fails.
func Optional(envKey, fallback string) string {
	value, err := Resolve(envKey)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
