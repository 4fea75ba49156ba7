package core

import "errors"

// MaxDefects bounds the number of defects returned for one dataset.
const MaxDefects = 10

// ErrNilGrid is returned when Validate is handed no grid at all.
// It signals a caller bug, not a data-quality problem.
var ErrNilGrid = errors.New("validate: nil grid")

// DefectKind classifies a validation defect.
type DefectKind string

const (
	DefectStructural   DefectKind = "structural"    // Missing required columns
	DefectEmptyDataset DefectKind = "empty_dataset" // No header, no data rows, or all rows blank
	DefectCellType     DefectKind = "cell_type"     // Non-numeric value in a numeric column
	DefectBlankCell    DefectKind = "blank_cell"    // Blank value in a required column
)

// Defect is one reason a dataset was rejected.
// Row is the 1-based row number in the file (header is row 1), zero when the
// defect is not tied to a row.
type Defect struct {
	Kind    DefectKind `json:"kind"`
	Row     int        `json:"row,omitempty"`
	Column  string     `json:"column,omitempty"`
	Value   string     `json:"value,omitempty"`
	Missing []string   `json:"missing,omitempty"`
	Message string     `json:"message"`
}

func (d Defect) String() string {
	return d.Message
}

// Stage is how far validation progressed.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageHeaderChecked Stage = "header_checked"
	StageRowsChecked   Stage = "rows_checked"
)

// Result is the outcome of validating one grid.
// Records is only populated when Defects is empty.
type Result struct {
	Stage   Stage    `json:"stage"`
	Header  []string `json:"header,omitempty"`
	Defects []Defect `json:"defects,omitempty"`
	Records []Record `json:"-"`
}

// Accepted reports whether the grid passed every check.
func (r *Result) Accepted() bool {
	return r != nil && r.Stage == StageRowsChecked && len(r.Defects) == 0
}

// Messages returns the defect messages in order.
func (r *Result) Messages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Defects))
	for i, d := range r.Defects {
		out[i] = d.Message
	}
	return out
}

// truncateDefects keeps at most MaxDefects entries.
func truncateDefects(defects []Defect) []Defect {
	if len(defects) > MaxDefects {
		return defects[:MaxDefects]
	}
	return defects
}
