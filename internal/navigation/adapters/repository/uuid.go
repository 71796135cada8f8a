package repository

import (
	"crypto/rand"
	"fmt"
)

// newUUID generates a random RFC 4122-compliant UUID v4
func newUUID() (string, error) {
	u := make([]byte, 16)
	if _, err := rand.Read(u); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}

	u[6] = (u[6] & 0x0f) | 0x40
	u[8] = (u[8] & 0x3f) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:]), nil
}
