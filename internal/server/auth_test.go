package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	auth := NewAuth("test-secret")
	token, user, err := auth.IssueAnonymous("alice", "")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, user.IsAnonymous)
	assert.Equal(t, "alice", user.Username)
	assert.Contains(t, user.ID, "anon_")

	userID, username, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, "alice", username)
}

func TestAnonymousIDContinuity(t *testing.T) {
	t.Parallel()

	auth := NewAuth("test-secret")

	// A client-provided anon_ id is preserved across token issuance so
	// reconnects keep their seat binding.
	_, user, err := auth.IssueAnonymous("bob", "anon_stable-device-id")
	require.NoError(t, err)
	assert.Equal(t, "anon_stable-device-id", user.ID)

	// Ids without the prefix are replaced, not trusted.
	_, user, err = auth.IssueAnonymous("eve", "admin")
	require.NoError(t, err)
	assert.NotEqual(t, "admin", user.ID)
	assert.Contains(t, user.ID, "anon_")
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Parallel()

	auth := NewAuth("test-secret")
	_, _, err := auth.Verify("not-a-token")
	assert.Error(t, err)

	other := NewAuth("different-secret")
	token, _, err := other.IssueAnonymous("mallory", "")
	require.NoError(t, err)
	_, _, err = auth.Verify(token)
	assert.Error(t, err, "token signed with another secret")
}

func TestDefaultUsername(t *testing.T) {
	t.Parallel()

	auth := NewAuth("test-secret")
	_, user, err := auth.IssueAnonymous("", "")
	require.NoError(t, err)
	assert.Contains(t, user.Username, "guest-")
}
