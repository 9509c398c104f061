// Package env reads one-off process environment values that sit
// outside the envconfig-managed configuration.
package env

import "os"

// Get reads key from the process environment. An unset or empty
// variable yields def.
func Get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
