package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "regular password", password: "password123"},
		{name: "special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "unicode", password: "contraseña-segura"},
		{name: "short", password: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)

			assert.NoError(t, Compare(hash, tt.password))
			assert.ErrorIs(t, Compare(hash, tt.password+"x"), ErrMismatch)
		})
	}
}

func TestHash_Salted(t *testing.T) {
	first, err := Hash("same")
	require.NoError(t, err)
	second, err := Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCompare_MalformedHash(t *testing.T) {
	err := Compare("not-a-bcrypt-hash", "password")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}
