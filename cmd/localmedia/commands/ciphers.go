package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/localmedia/internal/cli/output"
	"github.com/marmos91/localmedia/pkg/content/cipher"
)

var ciphersCmd = &cobra.Command{
	Use:   "ciphers",
	Short: "List the available ciphers",
	Args:  cobra.NoArgs,
	RunE:  runCiphers,
}

// CipherInfo describes one registered cipher.
type CipherInfo struct {
	Name    string `json:"name" yaml:"name"`
	KeySize int    `json:"key_size" yaml:"key_size"`
}

// CipherList renders as a table or marshals as a list.
type CipherList []CipherInfo

func (l CipherList) Headers() []string {
	return []string{"Name", "Key Size"}
}

func (l CipherList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		size := "any"
		if c.KeySize > 0 {
			size = strconv.Itoa(c.KeySize) + " bytes"
		}
		rows = append(rows, []string{c.Name, size})
	}
	return rows
}

var _ output.TableRenderer = CipherList(nil)

func runCiphers(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	var list CipherList
	for _, name := range cipher.Names() {
		c, err := cipher.New(name)
		if err != nil {
			return err
		}
		list = append(list, CipherInfo{Name: c.Name(), KeySize: c.KeySize()})
	}
	return printer.Print(list)
}
