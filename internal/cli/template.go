package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/schema"
	"github.com/JonMunkholm/ploidy/internal/xlsx"
	"github.com/spf13/cobra"
)

func newTemplateCmd() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "template <out.xlsx>",
		Short: "Write an empty workbook with the expected header row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.EqualFold(filepath.Ext(path), core.AcceptedExtension) {
				return fmt.Errorf("template path must end in %s", core.AcceptedExtension)
			}
			buf, err := xlsx.Template(schema.MorphokineticFieldSpecs)
			if err != nil {
				return err
			}
			if err := writeFile(path, buf.Bytes(), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d columns)\n", path, len(schema.MorphokineticFieldSpecs))
			return nil
		},
	}
	c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return c
}

// writeFile creates path, refusing to replace an existing file unless force.
func writeFile(path string, data []byte, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
