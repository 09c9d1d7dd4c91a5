package content

import (
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/marmos91/localmedia/pkg/content/cipher"
)

// decryptState holds the key material of a decrypting provider until
// teardown.
type decryptState struct {
	mu        sync.RWMutex
	decryptor cipher.Cipher
	key       []byte
}

func (s *decryptState) transform(chunk []byte, pos int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.decryptor == nil {
		return nil, ErrProviderClosed
	}
	return s.decryptor.Decrypt(chunk, pos, s.key)
}

func (s *decryptState) wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cipher.Wipe(s.key)
	s.key = nil
	s.decryptor = nil
}

// NewDecryptingProvider returns a provider that decrypts every chunk with
// decryptor before writing it. The key is copied; Clean wipes the copy once
// no send is using it.
func NewDecryptingProvider(fs billy.Filesystem, path string, decryptor cipher.Cipher, key []byte, opts ...Option) (*FileProvider, error) {
	state := &decryptState{
		decryptor: decryptor,
		key:       append([]byte(nil), key...),
	}
	return newFileProvider(fs, path, KindDecrypting, state.transform, state.wipe, opts)
}
