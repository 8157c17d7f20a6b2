package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	seed := "sEdTM1uX8pu2do5XvTnutH6HsouMaM2"

	cipher, err := EncryptString(seed)
	require.NoError(t, err)
	assert.NotEqual(t, seed, cipher)

	plain, err := DecryptString(cipher)
	require.NoError(t, err)
	assert.Equal(t, seed, plain)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	a, err := EncryptString("secret")
	require.NoError(t, err)
	b, err := EncryptString("secret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := DecryptString("not-base64!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = DecryptString("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
