// Package config loads settings for the kit and the applications using it.
//
// The Store interface keeps callers independent from the configuration
// backend; Viper is the provided implementation, with hot reload when the
// backing file changes.
package config

import (
	"io"
	"time"
)

// Store retrieves typed configuration values. Missing keys yield zero
// values; implementations do not distinguish absent from empty.
type Store interface {
	io.Closer

	// String returns the value for key as a string.
	String(key string) string

	// Int returns the value for key as an int.
	Int(key string) int

	// Bool returns the value for key as a bool.
	Bool(key string) bool

	// Second returns the integer value for key interpreted as seconds.
	Second(key string) time.Duration

	// Strings returns the value for key split on commas.
	Strings(key string) []string
}
