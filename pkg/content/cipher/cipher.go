// Package cipher implements the position-keyed content ciphers used to
// protect media files at rest.
//
// Every cipher transforms a chunk given its absolute offset in the file, so a
// byte range can be decrypted without reading anything before it. Encrypting
// a file in one pass and decrypting it in arbitrary chunks yields the same
// bytes.
package cipher

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownCipher    = errors.New("unknown cipher")
	ErrEmptyKey         = errors.New("cipher key is empty")
	ErrInvalidKeySize   = errors.New("invalid cipher key size")
	ErrNegativePosition = errors.New("negative chunk position")
	ErrPositionTooLarge = errors.New("chunk position exceeds cipher stream length")
)

// Cipher transforms content chunks keyed on their absolute file position.
//
// Implementations must be stateless: the same (chunk, pos, key) always
// produces the same output, and calls may run concurrently.
type Cipher interface {
	// Name is the identifier used in configuration ("xor", "chacha20").
	Name() string

	// KeySize is the required key length in bytes, or 0 if any non-empty
	// key is accepted.
	KeySize() int

	// Encrypt returns the ciphertext of chunk, which starts at byte pos of
	// the plaintext file. chunk is not modified.
	Encrypt(chunk []byte, pos int64, key []byte) ([]byte, error)

	// Decrypt reverses Encrypt for the same pos and key.
	Decrypt(chunk []byte, pos int64, key []byte) ([]byte, error)
}

var registry = map[string]Cipher{
	XORName:      XOR{},
	ChaCha20Name: ChaCha20{},
}

// New returns the cipher registered under name.
func New(name string) (Cipher, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownCipher, name, Names())
	}
	return c, nil
}

// Names returns the registered cipher names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkKey(c Cipher, key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if size := c.KeySize(); size > 0 && len(key) != size {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidKeySize, c.Name(), size, len(key))
	}
	return nil
}
