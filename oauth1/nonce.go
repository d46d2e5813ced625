package oauth1

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateNonce returns an unpredictable oauth_nonce value: the 16 bytes
// of a random (version 4) UUID as 32 lowercase hex characters.
func GenerateNonce() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(id[:]), nil
}
