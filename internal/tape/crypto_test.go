package tape

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey("passphrase")

	plaintext := []byte(`{"entries": []}`)
	ciphertext, err := encrypt(plaintext, key)
	require.NoError(t, err)

	assert.True(t, isEncrypted(ciphertext))

	decoded, err := decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decoded)
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	ciphertext, err := encrypt([]byte("hello"), testKey("right-key"))
	require.NoError(t, err)

	_, err = decrypt(ciphertext, testKey("wrong-key"))
	require.Error(t, err)
}

func TestIsEncrypted_PlaintextIsFalse(t *testing.T) {
	assert.False(t, isEncrypted([]byte(`{"version": 1}`)))
}
