package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/localmedia/pkg/content/cipher"
)

var (
	keygenCipher string
	keygenSize   int
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a random hex key",
	Long: `Print a random key sized for a cipher, hex encoded.

Examples:
  localmedia keygen
  localmedia keygen --cipher xor --size 16`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenCipher, "cipher", "chacha20", "cipher the key is for")
	keygenCmd.Flags().IntVar(&keygenSize, "size", 32, "key size in bytes for ciphers without a fixed size")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	c, err := cipher.New(keygenCipher)
	if err != nil {
		return err
	}

	size := c.KeySize()
	if size == 0 {
		size = keygenSize
	}
	if size <= 0 {
		return fmt.Errorf("--size must be positive")
	}

	key := make([]byte, size)
	defer cipher.Wipe(key)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to read random bytes: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
	return err
}
