package cipher

// XORName identifies the XOR cipher in configuration.
const XORName = "xor"

// XOR is a repeating-key XOR keyed on the absolute file position: byte i of
// the file is combined with key[i % len(key)].
//
// It only obfuscates content. Use ChaCha20 when the key must not be
// recoverable from known plaintext.
type XOR struct{}

func (XOR) Name() string { return XORName }

func (XOR) KeySize() int { return 0 }

func (x XOR) Encrypt(chunk []byte, pos int64, key []byte) ([]byte, error) {
	return x.apply(chunk, pos, key)
}

func (x XOR) Decrypt(chunk []byte, pos int64, key []byte) ([]byte, error) {
	return x.apply(chunk, pos, key)
}

func (x XOR) apply(chunk []byte, pos int64, key []byte) ([]byte, error) {
	if err := checkKey(x, key); err != nil {
		return nil, err
	}
	if pos < 0 {
		return nil, ErrNegativePosition
	}

	out := make([]byte, len(chunk))
	k := int(pos % int64(len(key)))
	for i, b := range chunk {
		out[i] = b ^ key[k]
		k++
		if k == len(key) {
			k = 0
		}
	}
	return out, nil
}
