package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/predict"
	"github.com/JonMunkholm/ploidy/internal/xlsx"
	"github.com/spf13/cobra"
)

func newPredictCmd(opts *options) *cobra.Command {
	var (
		apiURL      string
		timeout     time.Duration
		out         string
		force       bool
		rejectBlank bool
	)

	c := &cobra.Command{
		Use:   "predict <file.xlsx>",
		Short: "Validate a dataset and submit it to the prediction service",
		Long: `Validates the workbook first; only accepted datasets are sent.
With --out the results are also written as .xlsx or .csv, chosen by extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out != "" {
				if _, err := resultsEncoder(out); err != nil {
					return err
				}
			}

			client := predict.NewClient(apiURL, timeout)
			svc := newService(opts, client, rejectBlank, core.DefaultMaxFileSize)

			sub, err := intakeFile(cmd, svc, args[0])
			if err != nil {
				return err
			}
			if !sub.Accepted() {
				if err := printValidation(cmd.OutOrStdout(), opts.output, sub); err != nil {
					return err
				}
				return core.ErrNotAccepted
			}

			res, err := svc.Predict(cmd.Context(), sub)
			if err != nil {
				return err
			}

			report := resultsOf(res.FileName, res.Items)
			if out != "" {
				if err := writeResults(out, res.Items, force); err != nil {
					return err
				}
				report.Output = out
			}
			return printResults(cmd.OutOrStdout(), opts.output, report)
		},
	}

	c.Flags().StringVar(&apiURL, "api", envOr("PREDICT_API_URL", predict.DefaultBaseURL), "Prediction service URL")
	c.Flags().DurationVar(&timeout, "timeout", core.DefaultPredictTimeout, "Prediction request timeout")
	c.Flags().StringVar(&out, "out", "", "Write results to this .xlsx or .csv file")
	c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing output file")
	c.Flags().BoolVar(&rejectBlank, "reject-blank-cells", false, "Report blank cells in required columns")
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// resultsEncoder picks the export encoding from the file extension.
func resultsEncoder(path string) (func([]core.Classification) ([]byte, error), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return func(items []core.Classification) ([]byte, error) {
			buf, err := xlsx.EncodeResults(items)
			if err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		}, nil
	case ".csv":
		return func(items []core.Classification) ([]byte, error) {
			var buf bytes.Buffer
			err := core.WriteResultsCSV(&buf, items)
			return buf.Bytes(), err
		}, nil
	default:
		return nil, fmt.Errorf("output %s: extension must be .xlsx or .csv", path)
	}
}

func writeResults(path string, items []core.Classification, force bool) error {
	enc, err := resultsEncoder(path)
	if err != nil {
		return err
	}
	data, err := enc(items)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return writeFile(path, data, force)
}

func resultsOf(file string, items []core.Classification) resultsReport {
	s := core.Summarize(items)
	r := resultsReport{
		File: file,
		Summary: summaryReport{
			Total:            s.Total,
			Euploid:          s.Euploid,
			Aneuploid:        s.Aneuploid,
			Unknown:          s.Unknown,
			MeanConfidence:   s.MeanConfidence,
			MedianConfidence: s.MedianConfidence,
		},
		Results: make([]resultReport, 0, len(items)),
	}
	for _, c := range items {
		r.Results = append(r.Results, resultReport{
			EmbryoID:   string(c.EmbryoID),
			Status:     c.PloidyStatus,
			Confidence: c.ConfidenceScore,
		})
	}
	return r
}

func printResults(w io.Writer, format string, r resultsReport) error {
	if format != OutputText {
		return encode(w, format, r)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", core.ColumnEmbryoID, core.ColumnPloidy, core.ColumnConfidence)
	for _, c := range r.Results {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", c.EmbryoID, c.Status, c.Confidence)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printSummary(w, r)
	return nil
}

func printSummary(w io.Writer, r resultsReport) {
	s := r.Summary
	fmt.Fprintf(w, "\n%s: %d embryos, %d euploid, %d aneuploid", r.File, s.Total, s.Euploid, s.Aneuploid)
	if s.Unknown > 0 {
		fmt.Fprintf(w, ", %d unknown", s.Unknown)
	}
	fmt.Fprintf(w, "\nconfidence: mean %.2f%%, median %.2f%%\n", s.MeanConfidence, s.MedianConfidence)
	if r.Output != "" {
		fmt.Fprintf(w, "wrote %s\n", r.Output)
	}
}
