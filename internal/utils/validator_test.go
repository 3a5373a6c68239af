package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)
	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}

func TestValidateUsername(t *testing.T) {
	assert.True(t, ValidateUsername("bob"))
	assert.True(t, ValidateUsername("xx"))
	assert.False(t, ValidateUsername("x"))
	assert.False(t, ValidateUsername("  x  "))
	assert.False(t, ValidateUsername("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")) // 33 chars
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("gamer@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize("  <b>hello</b>  "))
	assert.Equal(t, "alert(1)", Sanitize("javascript:alert(1)"))
	assert.Equal(t, "a  b", Sanitize("a ;& b"))
	assert.Equal(t, "", Sanitize("<script></script>"))
}

func TestGenerateSessionToken(t *testing.T) {
	tok1, err := GenerateSessionToken()
	require.NoError(t, err)
	tok2, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, tok1, 64)
	assert.NotEqual(t, tok1, tok2)
}

func TestGenerateInviteCode(t *testing.T) {
	code, err := GenerateInviteCode()
	require.NoError(t, err)
	assert.Len(t, code, 12)
	assert.NotContains(t, code, "/")
	assert.NotContains(t, code, "+")
}
