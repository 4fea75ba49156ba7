package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// PloidyStatus is the model's classification of an embryo.
type PloidyStatus string

const (
	Euploid   PloidyStatus = "Euploid"
	Aneuploid PloidyStatus = "Aneuploid"
	Unknown   PloidyStatus = "Unknown"
)

// NormalizePloidy maps the labels emitted by the prediction service
// ("Euploide", "Euplóide", "euploid", ...) to a PloidyStatus.
func NormalizePloidy(s string) PloidyStatus {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "ó", "o")
	switch {
	case strings.HasPrefix(v, "aneuploid"):
		return Aneuploid
	case strings.HasPrefix(v, "euploid"):
		return Euploid
	default:
		return Unknown
	}
}

// EmbryoID accepts both JSON strings and numbers.
type EmbryoID string

func (id *EmbryoID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = EmbryoID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("embryo id: %w", err)
	}
	*id = EmbryoID(n.String())
	return nil
}

// Classification is one prediction returned for one embryo.
type Classification struct {
	EmbryoID        EmbryoID `json:"embryoId"`
	PloidyStatus    string   `json:"ploidyStatus"`
	ConfidenceScore float64  `json:"confidenceScore"`
}

// Status returns the normalized ploidy status.
func (c Classification) Status() PloidyStatus {
	return NormalizePloidy(c.PloidyStatus)
}

// ConfidenceLabel formats the confidence score as a percentage.
func (c Classification) ConfidenceLabel() string {
	return strconv.FormatFloat(c.ConfidenceScore, 'f', -1, 64) + "%"
}

// Summary aggregates a set of classifications.
type Summary struct {
	Total            int     `json:"total"`
	Euploid          int     `json:"euploid"`
	Aneuploid        int     `json:"aneuploid"`
	Unknown          int     `json:"unknown"`
	MeanConfidence   float64 `json:"meanConfidence"`
	MedianConfidence float64 `json:"medianConfidence"`
}

// Summarize counts statuses and computes confidence statistics.
func Summarize(items []Classification) Summary {
	s := Summary{Total: len(items)}
	if len(items) == 0 {
		return s
	}

	scores := make(stats.Float64Data, 0, len(items))
	for _, c := range items {
		switch c.Status() {
		case Euploid:
			s.Euploid++
		case Aneuploid:
			s.Aneuploid++
		default:
			s.Unknown++
		}
		scores = append(scores, c.ConfidenceScore)
	}

	if mean, err := stats.Mean(scores); err == nil {
		s.MeanConfidence = round2(mean)
	}
	if median, err := stats.Median(scores); err == nil {
		s.MedianConfidence = round2(median)
	}
	return s
}

func round2(f float64) float64 {
	r, err := stats.Round(f, 2)
	if err != nil {
		return f
	}
	return r
}

// Results is the outcome of one prediction submission.
type Results struct {
	SubmissionID string           `json:"submissionId"`
	FileName     string           `json:"fileName"`
	Items        []Classification `json:"results"`
	Summary      Summary          `json:"summary"`
	Duration     time.Duration    `json:"durationNs"`
}

// NewResults builds Results and computes its summary.
func NewResults(submissionID, fileName string, items []Classification, d time.Duration) *Results {
	if items == nil {
		items = []Classification{}
	}
	return &Results{
		SubmissionID: submissionID,
		FileName:     fileName,
		Items:        items,
		Summary:      Summarize(items),
		Duration:     d,
	}
}
