package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups jobscout's secrets in the OS keychain.
	KeyringService = "jobscout"
	// OpenAIAccount is the keychain account holding the completion API key.
	OpenAIAccount = "openai"
)

// ResolveAPIKey returns configured when it is set, otherwise the key stored in
// the OS keyring. A key that is nowhere to be found is not an error: the
// result is simply empty. Keyring failures other than "not found" are returned.
func ResolveAPIKey(configured string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}

	key, err := keyring.Get(KeyringService, OpenAIAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// SetAPIKey stores key in the OS keyring.
func SetAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, OpenAIAccount, strings.TrimSpace(key))
}

// DeleteAPIKey removes the stored key. Deleting a missing key is not an error.
func DeleteAPIKey() error {
	err := keyring.Delete(KeyringService, OpenAIAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
