package utils

import "github.com/google/uuid"

var newV7 = uuid.NewV7

// NewID returns a time-ordered UUID v7, falling back to v4.
func NewID() uuid.UUID {
	id, err := newV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
