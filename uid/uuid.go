// Package uid generates string identifiers, used for correlation IDs on
// published messages.
package uid

import "github.com/google/uuid"

// Generator produces string identifiers.
type Generator interface {
	Generate() string
}

// UUID generates RFC 4122 UUID strings, preferring the time-ordered v7 form.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string, preferring the time-ordered v7 form so
// correlation IDs sort by creation time in log output.
func (u *UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString() // v4 when the entropy source misbehaves
}
