package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFingerprint(t *testing.T) {
	a := TokenFingerprint("token-a")
	assert.Len(t, a, 64)
	assert.True(t, ValidFingerprint(a))
	assert.Equal(t, a, TokenFingerprint("token-a"))
	assert.NotEqual(t, a, TokenFingerprint("token-b"))
	assert.NotContains(t, a, "token-a")

	// sha256("")
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", TokenFingerprint(""))
}

func TestValidFingerprint(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{TokenFingerprint("x"), true},
		{"abc", false},
		{"E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855", false},
		{"zz" + TokenFingerprint("x")[2:], false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidFingerprint(tt.in), tt.in)
	}
}

func TestEqualSecrets(t *testing.T) {
	assert.True(t, EqualSecrets("k1", "k1"))
	assert.False(t, EqualSecrets("k1", "k2"))
	assert.False(t, EqualSecrets("k1", ""))
	assert.False(t, EqualSecrets("", ""))
}

func TestGenerateSecret(t *testing.T) {
	s, err := GenerateSecret(DefaultSecretBytes)
	require.NoError(t, err)
	assert.Len(t, s, 64)

	other, err := GenerateSecret(DefaultSecretBytes)
	require.NoError(t, err)
	assert.NotEqual(t, s, other)

	_, err = GenerateSecret(8)
	assert.ErrorIs(t, err, ErrSecretTooShort)
}
