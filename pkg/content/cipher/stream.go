package cipher

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"

	"github.com/marmos91/localmedia/pkg/bufpool"
)

// EncryptStream reads src to EOF and writes its ciphertext to dst in
// chunkSize pieces. It returns the number of plaintext bytes consumed.
func EncryptStream(c Cipher, dst io.Writer, src io.Reader, key []byte, chunkSize int) (int64, error) {
	pool := bufpool.ForSize(chunkSize)
	buf := pool.Get()
	defer pool.Put(buf)

	var pos int64
	for {
		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			out, err := c.Encrypt(buf[:n], pos, key)
			if err != nil {
				return pos, fmt.Errorf("encrypt at %d: %w", pos, err)
			}
			if _, err := dst.Write(out); err != nil {
				return pos, fmt.Errorf("write at %d: %w", pos, err)
			}
			pos += int64(n)
		}
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return pos, nil
		default:
			return pos, fmt.Errorf("read at %d: %w", pos, readErr)
		}
	}
}

// EncryptFile encrypts the file at src into dst on fs, truncating dst.
func EncryptFile(fs billy.Filesystem, c Cipher, src, dst string, key []byte, chunkSize int) (int64, error) {
	in, err := fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := fs.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	n, err := EncryptStream(c, out, in, key, chunkSize)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close destination: %w", closeErr)
	}
	return n, err
}
