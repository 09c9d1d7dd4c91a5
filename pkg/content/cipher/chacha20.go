package cipher

import (
	"math"

	"golang.org/x/crypto/chacha20"
)

// ChaCha20Name identifies the ChaCha20 cipher in configuration.
const ChaCha20Name = "chacha20"

// chachaBlockSize is the keystream block size; the block counter advances
// once per block.
const chachaBlockSize = 64

// ChaCha20 is the unauthenticated ChaCha20 stream cipher (RFC 8439). The key
// is 44 bytes: the 32-byte cipher key followed by the 12-byte nonce.
//
// The keystream is seeked to pos by setting the block counter and discarding
// the remainder of the first block.
type ChaCha20 struct{}

func (ChaCha20) Name() string { return ChaCha20Name }

func (ChaCha20) KeySize() int { return chacha20.KeySize + chacha20.NonceSize }

func (c ChaCha20) Encrypt(chunk []byte, pos int64, key []byte) ([]byte, error) {
	return c.apply(chunk, pos, key)
}

func (c ChaCha20) Decrypt(chunk []byte, pos int64, key []byte) ([]byte, error) {
	return c.apply(chunk, pos, key)
}

func (c ChaCha20) apply(chunk []byte, pos int64, key []byte) ([]byte, error) {
	if err := checkKey(c, key); err != nil {
		return nil, err
	}
	if pos < 0 {
		return nil, ErrNegativePosition
	}

	end := (pos + int64(len(chunk)) + chachaBlockSize - 1) / chachaBlockSize
	if end > math.MaxUint32 {
		return nil, ErrPositionTooLarge
	}

	stream, err := chacha20.NewUnauthenticatedCipher(key[:chacha20.KeySize], key[chacha20.KeySize:])
	if err != nil {
		return nil, err
	}
	stream.SetCounter(uint32(pos / chachaBlockSize))
	if skip := pos % chachaBlockSize; skip > 0 {
		var discard [chachaBlockSize]byte
		stream.XORKeyStream(discard[:skip], discard[:skip])
	}

	out := make([]byte, len(chunk))
	stream.XORKeyStream(out, chunk)
	return out, nil
}
