package pg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBannedTokenRoundTrip(t *testing.T) {
	banned, err := storage.IsTokenBanned("never-recorded")
	require.NoError(t, err)
	assert.False(t, banned, "Unrecorded token should not be banned")

	require.NoError(t, storage.SaveBannedToken("revoked-token"))

	banned, err = storage.IsTokenBanned("revoked-token")
	require.NoError(t, err)
	assert.True(t, banned, "Recorded token should be banned")
}

func TestBannedTokenIdempotent(t *testing.T) {
	require.NoError(t, storage.SaveBannedToken("twice-banned"))
	require.NoError(t, storage.SaveBannedToken("twice-banned"), "Re-recording the same token should be a no-op")

	banned, err := storage.IsTokenBanned("twice-banned")
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestBannedTokenExactMatch(t *testing.T) {
	require.NoError(t, storage.SaveBannedToken("exact.token.value"))

	banned, err := storage.IsTokenBanned("exact.token.valu")
	require.NoError(t, err)
	assert.False(t, banned, "Lookup is by exact string, prefixes do not match")
}
