package env

import "os"

// Get returns the value of the given environment variable or a fallback.
// Configuration proper goes through envconfig; this is for the handful of
// knobs read before config loads, like the logger's output format.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
