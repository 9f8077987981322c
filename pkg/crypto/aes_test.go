package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecrypt(t *testing.T) {
	ciphertext, err := Encrypt("exchange-api-secret", testKey)
	require.NoError(t, err)
	assert.NotEqual(t, "exchange-api-secret", ciphertext)

	plaintext, err := Decrypt(ciphertext, testKey)
	require.NoError(t, err)
	assert.Equal(t, "exchange-api-secret", plaintext)
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	ciphertext, err := Encrypt("exchange-api-secret", testKey)
	require.NoError(t, err)

	tampered := []byte(ciphertext)
	tampered[len(tampered)-5] ^= 0x01
	_, err = Decrypt(string(tampered), testKey)
	assert.Error(t, err)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	ciphertext, err := Encrypt("exchange-api-secret", testKey)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, "ffffffffffffffffffffffffffffffff")
	assert.Error(t, err)
}
