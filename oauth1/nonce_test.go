package oauth1

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNonce(t *testing.T) {
	seen := map[string]struct{}{}

	for range 100 {
		nonce, err := GenerateNonce()
		require.NoError(t, err)
		require.Len(t, nonce, 32)

		_, err = hex.DecodeString(nonce)
		require.NoError(t, err)

		_, dup := seen[nonce]
		assert.False(t, dup)
		seen[nonce] = struct{}{}
	}
}
