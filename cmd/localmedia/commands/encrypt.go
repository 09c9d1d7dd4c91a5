package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/marmos91/localmedia/internal/bytesize"
	"github.com/marmos91/localmedia/internal/cli/prompt"
	"github.com/marmos91/localmedia/pkg/config"
	"github.com/marmos91/localmedia/pkg/content/cipher"
)

var (
	encryptForce      bool
	encryptChunkSize  string
	encryptDecryption decryptionFlags
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt <input> <output>",
	Short: "Encrypt a file for decrypted serving",
	Long: `Encrypt a file with a position-keyed stream cipher so that
'localmedia serve --decrypt' can serve any byte range of it.

Cipher, key and salt default to the decryption section of the config file.
Without a key or passphrase, a passphrase is prompted for on a terminal.

Examples:
  # Encrypt with a prompted passphrase
  localmedia encrypt movie.mp4 movie.mp4.enc

  # Encrypt with an explicit key
  localmedia encrypt movie.mp4 movie.mp4.enc --cipher chacha20 --key-hex $(localmedia keygen)`,
	Args: cobra.ExactArgs(2),
	RunE: runEncrypt,
}

func init() {
	encryptCmd.Flags().BoolVarP(&encryptForce, "force", "f", false, "overwrite the output file without asking")
	encryptCmd.Flags().StringVar(&encryptChunkSize, "chunk-size", "64Ki", "read/write chunk size")
	encryptDecryption.register(encryptCmd)
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	src, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}
	if src == dst {
		return errors.New("input and output must be different files")
	}

	chunkSize, err := bytesize.Parse(encryptChunkSize)
	if err != nil {
		return fmt.Errorf("invalid --chunk-size: %w", err)
	}
	if chunkSize <= 0 {
		return errors.New("--chunk-size must be positive")
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	d := cfg.Decryption
	encryptDecryption.apply(cmd, &d)
	if err := ensureKey(&d, true); err != nil {
		return err
	}

	if _, err := os.Stat(dst); err == nil {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Overwrite %s?", dst), encryptForce || !isTerminal())
		if err != nil {
			return err
		}
		if !ok {
			return prompt.ErrAborted
		}
	}

	c, key, err := d.Resolve()
	if err != nil {
		return fmt.Errorf("failed to resolve key: %w", err)
	}
	defer cipher.Wipe(key)

	n, err := cipher.EncryptFile(osfs.New("/"), c, src, dst, key, chunkSize.Int())
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", src, err)
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	printer.Success(fmt.Sprintf("Encrypted %s (%s) with %s into %s", src, bytesize.ByteSize(n), c.Name(), dst))
	return nil
}
