package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsernameFormat(t *testing.T) {
	username, _, err := Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(username, UsernamePrefix))
	suffix := strings.TrimPrefix(username, UsernamePrefix)
	assert.Len(t, suffix, 16)
	for _, r := range suffix {
		assert.Contains(t, "0123456789abcdef", string(r))
	}
}

func TestGeneratePasswordPolicy(t *testing.T) {
	for i := 0; i < 50; i++ {
		_, password, err := Generate()
		require.NoError(t, err)

		assert.Len(t, password, PasswordLength)
		assert.True(t, strings.ContainsAny(password, lowerChars), "missing lowercase: %q", password)
		assert.True(t, strings.ContainsAny(password, upperChars), "missing uppercase: %q", password)
		assert.True(t, strings.ContainsAny(password, digitChars), "missing digit: %q", password)
		assert.True(t, strings.ContainsAny(password, symbolChars), "missing symbol: %q", password)
	}
}

func TestGenerateUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		username, password, err := Generate()
		require.NoError(t, err)

		if seen[username] {
			t.Fatalf("duplicate username generated: %s", username)
		}
		seen[username] = true

		assert.NotEqual(t, username, password)
	}
}

func TestGeneratePasswordBelowMinimum(t *testing.T) {
	_, err := generatePassword(3)
	assert.Error(t, err)
}
