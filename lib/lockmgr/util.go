package lockmgr

import (
	"crypto/rand"
)

const (
	ownerIDBits = 256
)

// generateOwnerID creates a new unique owner ID
// The owner ID is a random byte slice of 256 bit.
func generateOwnerID() ([]byte, error) {
	randomBytes := make([]byte, ownerIDBits/8)
	_, err := rand.Read(randomBytes)
	return randomBytes, err
}
