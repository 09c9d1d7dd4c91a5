package cipher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// keyInfo binds derived keys to this application.
const keyInfo = "localmedia content key v1"

// DeriveKey stretches a passphrase into a size-byte key using HKDF-SHA256.
// The same passphrase and salt always produce the same key.
func DeriveKey(passphrase, salt []byte, size int) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyKey
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKeySize, size)
	}

	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, passphrase, salt, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// ParseKeyHex decodes a hex-encoded key, ignoring surrounding whitespace.
func ParseKeyHex(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode hex key: %w", err)
	}
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return key, nil
}

// ResolveKey returns the key for c from either a hex string or a passphrase,
// preferring the hex key when both are set. Passphrase keys are derived to
// the cipher's key size (32 bytes for variable-size ciphers).
func ResolveKey(c Cipher, keyHex, passphrase, salt string) ([]byte, error) {
	var (
		key []byte
		err error
	)
	switch {
	case keyHex != "":
		key, err = ParseKeyHex(keyHex)
	case passphrase != "":
		size := c.KeySize()
		if size == 0 {
			size = 32
		}
		key, err = DeriveKey([]byte(passphrase), []byte(salt), size)
	default:
		return nil, ErrEmptyKey
	}
	if err != nil {
		return nil, err
	}
	if err := checkKey(c, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Wipe zeroes key in place.
func Wipe(key []byte) {
	clear(key)
}
