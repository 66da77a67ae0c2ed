package common

import (
	"github.com/google/uuid"
)

// NewTurnID generates a unique conversation turn ID with the "turn_" prefix
func NewTurnID() string {
	return "turn_" + uuid.New().String()
}

// NewVectorID generates a unique vector record ID with the "vec_" prefix
func NewVectorID() string {
	return "vec_" + uuid.New().String()
}

// NewSessionID generates a unique chat session ID
func NewSessionID() string {
	return uuid.New().String()
}
