package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/schema"
	"github.com/JonMunkholm/ploidy/internal/xlsx"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *options) *cobra.Command {
	var rejectBlank bool
	var maxSize int64

	c := &cobra.Command{
		Use:   "validate <file.xlsx>",
		Short: "Validate a dataset without submitting it",
		Long: `Checks the header and rows of the first worksheet and prints up to 10 defects.
Exits with status 2 when the dataset is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService(opts, nil, rejectBlank, maxSize)
			sub, err := intakeFile(cmd, svc, args[0])
			if err != nil {
				return err
			}
			if err := printValidation(cmd.OutOrStdout(), opts.output, sub); err != nil {
				return err
			}
			if !sub.Accepted() {
				return core.ErrNotAccepted
			}
			return nil
		},
	}
	c.Flags().BoolVar(&rejectBlank, "reject-blank-cells", false, "Report blank cells in required columns")
	c.Flags().Int64Var(&maxSize, "max-size", core.DefaultMaxFileSize, "Maximum file size in bytes")
	return c
}

// newService wires a validator for the morphokinetic schema.
func newService(opts *options, pred core.Predictor, rejectBlank bool, maxSize int64) *core.Service {
	policy := core.BlankCellsAllowed
	if rejectBlank {
		policy = core.BlankCellsRejected
	}
	v := core.NewValidator(
		schema.Morphokinetic().WithBlankCells(policy),
		core.WithMessages(core.MessagesFor(opts.locale)),
	)
	return core.NewService(v, xlsx.NewDecoder(), pred, core.ServiceConfig{MaxFileSize: maxSize, MaxConcurrent: 1})
}

func intakeFile(cmd *cobra.Command, svc *core.Service, path string) (*core.Submission, error) {
	if err := core.CheckFileName(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return svc.Intake(cmd.Context(), path, f)
}

func validationOf(sub *core.Submission) validationReport {
	r := validationReport{
		File:     sub.FileName,
		Accepted: sub.Accepted(),
		Stage:    string(sub.Result.Stage),
		Rows:     len(sub.Result.Records),
		Defects:  []defectReport{},
	}
	for _, d := range sub.Result.Defects {
		r.Defects = append(r.Defects, defectReport{
			Kind:    string(d.Kind),
			Row:     d.Row,
			Column:  d.Column,
			Value:   d.Value,
			Missing: d.Missing,
			Message: d.Message,
		})
	}
	return r
}

func printValidation(w io.Writer, format string, sub *core.Submission) error {
	report := validationOf(sub)
	if format != OutputText {
		return encode(w, format, report)
	}

	if report.Accepted {
		_, err := fmt.Fprintf(w, "%s: OK (%d rows)\n", report.File, report.Rows)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: rejected (%s)\n", report.File, report.Stage); err != nil {
		return err
	}
	for _, d := range report.Defects {
		if _, err := fmt.Fprintf(w, "  - %s\n", d.Message); err != nil {
			return err
		}
	}
	return nil
}
