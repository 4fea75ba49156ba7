package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/xlsx"
	"github.com/spf13/cobra"
)

func newSummarizeCmd(opts *options) *cobra.Command {
	var detail bool

	c := &cobra.Command{
		Use:   "summarize <results.csv|results.xlsx>",
		Short: "Summarize an exported results file",
		Long:  `Reads a results table exported by the web UI or by "ploidy predict --out" and prints ploidy counts and confidence statistics.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readResults(args[0])
			if err != nil {
				return err
			}
			report := resultsOf(filepath.Base(args[0]), items)
			if opts.output != OutputText {
				if !detail {
					report.Results = nil
				}
				return encode(cmd.OutOrStdout(), opts.output, report)
			}
			if detail {
				return printResults(cmd.OutOrStdout(), opts.output, report)
			}
			printSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}
	c.Flags().BoolVar(&detail, "detail", false, "Also list every embryo")
	return c
}

func readResults(path string) ([]core.Classification, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return core.ReadResultsCSV(f)
	case ".xlsx":
		g, err := xlsx.NewDecoder().Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidSpreadsheet, err)
		}
		return core.ResultsFromGrid(g)
	default:
		return nil, fmt.Errorf("%s: results must be .csv or .xlsx", path)
	}
}
