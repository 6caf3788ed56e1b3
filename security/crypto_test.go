package security

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	viper.Set("crypto.secret", "test-secret")

	salt, err := NewSalt()
	require.NoError(t, err)

	key := CreateKey(salt)

	ct, err := Encrypt("super-secret-token", key)
	require.NoError(t, err)
	assert.NotEmpty(t, ct.IV)
	assert.NotEqual(t, "super-secret-token", ct.Content)

	plain, err := Decrypt(ct, key)
	require.NoError(t, err)
	assert.Equal(t, "super-secret-token", plain)
}

func TestDecryptWithWrongSalt(t *testing.T) {
	viper.Set("crypto.secret", "test-secret")

	salt, err := NewSalt()
	require.NoError(t, err)

	ct, err := Encrypt("token", CreateKey(salt))
	require.NoError(t, err)

	other, err := NewSalt()
	require.NoError(t, err)

	plain, err := Decrypt(ct, CreateKey(other))
	require.NoError(t, err)
	assert.NotEqual(t, "token", plain, "a different salt must not recover the plaintext")
}

func TestDecryptRejectsMalformedInput(t *testing.T) {
	viper.Set("crypto.secret", "test-secret")
	key := CreateKey("salt")

	ct, err := Encrypt("token", key)
	require.NoError(t, err)

	ct.IV = "zz"
	_, err = Decrypt(ct, key)
	assert.Error(t, err)
}

func TestSaltsAreUnique(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
