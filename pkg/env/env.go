package env

import "os"

// Get reads an environment variable, falling back when unset or empty. This is
// for pre-config bootstrap paths only; everything else goes through pkg/config.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
