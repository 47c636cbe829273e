package tape

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveToFile serializes t to path, encrypting it first if a tape key is
// configured in the environment.
func SaveToFile(t *Tape, path string) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("tape: marshal: %w", err)
	}

	if key, ok := keyFromEnv(); ok {
		data, err = encrypt(data, key)
		if err != nil {
			return fmt.Errorf("tape: encrypt: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("tape: write %s: %w", path, err)
	}
	return nil
}

// LoadFromFile reads and decodes a tape file, transparently decrypting it
// when it carries the encrypted magic prefix.
func LoadFromFile(path string) (*Tape, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tape: read %s: %w", path, err)
	}

	if isEncrypted(raw) {
		key, ok := keyFromEnv()
		if !ok {
			return nil, fmt.Errorf("tape: %s is encrypted but no CHAOS_TAPE_KEY/TAPE_KEY is set", path)
		}
		raw, err = decrypt(raw, key)
		if err != nil {
			return nil, fmt.Errorf("tape: decrypt %s: %w", path, err)
		}
	}

	var t Tape
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("tape: parse %s: %w", path, err)
	}
	return &t, nil
}
