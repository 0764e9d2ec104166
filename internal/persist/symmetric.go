package persist

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptKeyring seals a team's keyring bytes under the device secret key
// before they touch a Blob. The device secret key never leaves configuration
// and is never itself persisted.
func EncryptKeyring(keyring, deviceSecretKey []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(deviceSecretKey)
	if err != nil {
		return nil, fmt.Errorf("persist: new aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("persist: nonce: %w", err)
	}
	ct := aead.Seal(nil, nonce, keyring, nil)
	out := make([]byte, len(nonce)+len(ct))
	copy(out, nonce)
	copy(out[len(nonce):], ct)
	return out, nil
}

// DecryptKeyring reverses EncryptKeyring.
func DecryptKeyring(encrypted, deviceSecretKey []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(deviceSecretKey)
	if err != nil {
		return nil, fmt.Errorf("persist: new aead: %w", err)
	}
	ns := aead.NonceSize()
	if len(encrypted) < ns {
		return nil, fmt.Errorf("persist: encrypted keyring too short")
	}
	pt, err := aead.Open(nil, encrypted[:ns], encrypted[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("persist: decrypt keyring: %w", err)
	}
	return pt, nil
}
