package util

import (
	"github.com/google/uuid"
)

// GenerateRandomId produces a fresh id for runs and temporary node/edge
// placeholders, following the uuid usage the rest of this codebase
// relies on for id generation.
func GenerateRandomId() string {
	return uuid.New().String()
}
