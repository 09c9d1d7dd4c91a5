package server

import (
	"github.com/go-git/go-billy/v5"

	"github.com/marmos91/localmedia/pkg/content"
	"github.com/marmos91/localmedia/pkg/content/cipher"
)

// ProviderFactory builds the content provider for a prepared file. path is
// absolute and has already been checked to exist and be non-empty.
type ProviderFactory func(fs billy.Filesystem, path string) (content.Provider, error)

// RawProviderFactory serves files unchanged.
func RawProviderFactory(chunkSize int) ProviderFactory {
	return func(fs billy.Filesystem, path string) (content.Provider, error) {
		return content.NewRawProvider(fs, path, content.WithChunkSize(chunkSize))
	}
}

// DecryptingProviderFactory serves files decrypted with c and key. Each
// provider gets its own copy of key.
func DecryptingProviderFactory(c cipher.Cipher, key []byte, chunkSize int) ProviderFactory {
	return func(fs billy.Filesystem, path string) (content.Provider, error) {
		return content.NewDecryptingProvider(fs, path, c, key, content.WithChunkSize(chunkSize))
	}
}

// providerKind returns the metrics label for p.
func providerKind(p content.Provider) string {
	if k, ok := p.(interface{ Kind() content.Kind }); ok {
		return string(k.Kind())
	}
	return "custom"
}
