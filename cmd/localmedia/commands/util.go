package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/localmedia/internal/cli/output"
	"github.com/marmos91/localmedia/internal/cli/prompt"
	"github.com/marmos91/localmedia/internal/logger"
	"github.com/marmos91/localmedia/pkg/config"
)

// InitLogger initializes the logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// newPrinter returns a printer for cmd honoring --output.
func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, isTerminal()), nil
}

func isTerminal() bool {
	return logger.IsTerminal(os.Stdin) && logger.IsTerminal(os.Stdout)
}

// decryptionFlags are shared by serve and encrypt.
type decryptionFlags struct {
	cipher     string
	keyHex     string
	passphrase string
	salt       string
}

func (f *decryptionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cipher, "cipher", "", "cipher name (see 'localmedia ciphers')")
	cmd.Flags().StringVar(&f.keyHex, "key-hex", "", "hex encoded key")
	cmd.Flags().StringVar(&f.passphrase, "passphrase", "", "passphrase to derive the key from (prompted when omitted on a terminal)")
	cmd.Flags().StringVar(&f.salt, "salt", "", "salt mixed into passphrase derivation")
}

// apply overrides d with the flags the user set. A key given on the command
// line replaces whatever kind of key the config file carried.
func (f *decryptionFlags) apply(cmd *cobra.Command, d *config.DecryptionConfig) {
	if cmd.Flags().Changed("cipher") {
		d.Cipher = f.cipher
	}
	if cmd.Flags().Changed("key-hex") {
		d.KeyHex = f.keyHex
		d.Passphrase = ""
	}
	if cmd.Flags().Changed("passphrase") {
		d.Passphrase = f.passphrase
		d.KeyHex = ""
	}
	if cmd.Flags().Changed("salt") {
		d.Salt = f.salt
	}
}

// ensureKey prompts for a passphrase when d has no key material and a
// terminal is attached. confirm asks twice, for keys that are being created.
func ensureKey(d *config.DecryptionConfig, confirm bool) error {
	if d.KeyHex != "" || d.Passphrase != "" || !isTerminal() {
		return nil
	}

	var (
		passphrase string
		err        error
	)
	if confirm {
		passphrase, err = prompt.NewPassphrase(8)
	} else {
		passphrase, err = prompt.Passphrase("Passphrase")
	}
	if err != nil {
		return err
	}
	d.Passphrase = passphrase
	return nil
}
