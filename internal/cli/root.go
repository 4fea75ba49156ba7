// Package cli implements the ploidy command line tool: offline validation,
// template generation, prediction and summaries of exported results.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/logging"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

var validOutputFormats = []string{OutputText, OutputJSON, OutputYAML}

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitRejected = 2 // the dataset failed validation
)

// options holds the persistent flags shared by every command.
type options struct {
	output   string
	locale   string
	logLevel string
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "ploidy",
		Short:         "Validate embryo datasets and predict ploidy",
		Long:          `Checks morphokinetic spreadsheets against the expected columns, sends accepted files to the prediction service and summarizes exported results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(validOutputFormats, opts.output) {
				return fmt.Errorf("invalid output format: %s (valid: %v)", opts.output, validOutputFormats)
			}
			if !core.IsLocale(opts.locale) {
				return fmt.Errorf("invalid locale: %s (valid: %v)", opts.locale, core.Locales())
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.output, "output", "o", OutputText, "Output format: text, json or yaml")
	pf.StringVar(&opts.locale, "locale", "pt-BR", "Defect message language: pt-BR or en")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newValidateCmd(opts),
		newTemplateCmd(),
		newPredictCmd(opts),
		newSummarizeCmd(opts),
	)
	return root
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, core.ErrNotAccepted):
		return ExitRejected
	default:
		fmt.Fprintln(stderr, "error:", describe(err))
		return ExitError
	}
}

// describe prefers the coded user message for known failures.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err) + " [" + err.Error() + "]"
	}
	return err.Error()
}
