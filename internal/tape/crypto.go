package tape

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// magicPrefix marks an encrypted tape file on disk.
const magicPrefix = "AGCTAPE1"

// keyFromEnv resolves the tape encryption key. CHAOS_TAPE_KEY is checked
// first (consistent with this proxy's CHAOS_-prefixed env vars); TAPE_KEY
// is accepted as a bare alias. Returns ok=false when neither is set,
// meaning the tape is stored in plaintext.
func keyFromEnv() ([]byte, bool) {
	raw := os.Getenv("CHAOS_TAPE_KEY")
	if raw == "" {
		raw = os.Getenv("TAPE_KEY")
	}
	if raw == "" {
		return nil, false
	}
	// Derive a 32-byte AES-256 key from an arbitrary-length passphrase.
	sum := sha256.Sum256([]byte(raw))
	return sum[:], true
}

// encrypt wraps plaintext in an AES-256-GCM envelope prefixed with
// magicPrefix, nonce, then ciphertext.
func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tape: build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("tape: build gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("tape: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, 0, len(magicPrefix)+len(sealed))
	out = append(out, []byte(magicPrefix)...)
	out = append(out, sealed...)
	return out, nil
}

// decrypt reverses encrypt. If raw doesn't start with magicPrefix it is
// returned as-is, treating the tape as plaintext.
func decrypt(raw, key []byte) ([]byte, error) {
	if len(raw) < len(magicPrefix) || string(raw[:len(magicPrefix)]) != magicPrefix {
		return raw, nil
	}
	sealed := raw[len(magicPrefix):]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tape: build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("tape: build gcm: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("tape: ciphertext too short")
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("tape: decrypt: %w", err)
	}
	return plaintext, nil
}

// isEncrypted reports whether raw carries the encrypted tape magic prefix.
func isEncrypted(raw []byte) bool {
	return len(raw) >= len(magicPrefix) && string(raw[:len(magicPrefix)]) == magicPrefix
}
