package utils

import "github.com/google/uuid"

// IsUUID reports whether s parses as a UUID. Path params are checked with
// this before any repository call.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
