package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAPIToken(t *testing.T) {
	us := &UserSettings{UserID: 1}

	raw, err := us.IssueAPIToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "cfl_"))
	assert.Equal(t, HashAPIToken(raw), us.APITokenHash)
	assert.Equal(t, raw[:16], us.APITokenPrefix)
	assert.NotNil(t, us.APITokenCreatedAt)
	assert.Nil(t, us.APITokenRevokedAt)
	assert.True(t, us.HasActiveAPIToken())
}

func TestIssueAPITokenRotates(t *testing.T) {
	us := &UserSettings{UserID: 1}

	first, err := us.IssueAPIToken()
	require.NoError(t, err)
	second, err := us.IssueAPIToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, HashAPIToken(second), us.APITokenHash)
	assert.NotEqual(t, HashAPIToken(first), us.APITokenHash)
}

func TestRevokeAPIToken(t *testing.T) {
	us := &UserSettings{UserID: 1}
	_, err := us.IssueAPIToken()
	require.NoError(t, err)

	us.RevokeAPIToken()
	assert.False(t, us.HasActiveAPIToken())
	assert.Empty(t, us.APITokenHash)
	assert.NotNil(t, us.APITokenRevokedAt)
}

func TestHashAPITokenTrimsWhitespace(t *testing.T) {
	assert.Equal(t, HashAPIToken("cfl_abc"), HashAPIToken("  cfl_abc \n"))
}
