package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrPassphraseMismatch indicates the confirmation did not match.
var ErrPassphraseMismatch = errors.New("passphrases do not match")

// Passphrase prompts for a masked passphrase.
func Passphrase(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}

// NewPassphrase prompts twice for a passphrase of at least minLength
// characters and returns it if both entries match.
func NewPassphrase(minLength int) (string, error) {
	prompt := promptui.Prompt{
		Label:    "Passphrase",
		Mask:     '*',
		Validate: MinLength(minLength),
	}

	passphrase, err := prompt.Run()
	if err != nil {
		return "", wrapError(err)
	}

	confirm, err := Passphrase("Confirm passphrase")
	if err != nil {
		return "", err
	}

	if passphrase != confirm {
		return "", ErrPassphraseMismatch
	}
	return passphrase, nil
}

// MinLength returns a promptui validator rejecting shorter input.
func MinLength(n int) promptui.ValidateFunc {
	return func(input string) error {
		if len(input) < n {
			return fmt.Errorf("passphrase must be at least %d characters", n)
		}
		return nil
	}
}
