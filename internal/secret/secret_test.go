package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	for range 50 {
		p, err := Password(PasswordLen)
		require.NoError(t, err)
		require.Len(t, p, PasswordLen)

		assert.True(t, strings.ContainsAny(p, lower), p)
		assert.True(t, strings.ContainsAny(p, upper), p)
		assert.True(t, strings.ContainsAny(p, digits), p)
		assert.False(t, strings.ContainsAny(p, "lIO01"), p)
	}
}

func TestPassword_TooShort(t *testing.T) {
	_, err := Password(2)
	require.ErrorIs(t, err, ErrTooShort)

	p, err := Password(3)
	require.NoError(t, err)
	assert.Len(t, p, 3)
}

func TestToken(t *testing.T) {
	a, err := Token()
	require.NoError(t, err)

	b, err := Token()
	require.NoError(t, err)

	assert.Len(t, a, 2*TokenBytes)
	assert.NotEqual(t, a, b)
}
