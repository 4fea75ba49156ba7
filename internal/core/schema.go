package core

import "strings"

// BlankCellPolicy decides whether blank cells in required columns are defects.
type BlankCellPolicy int

const (
	// BlankCellsAllowed tolerates blanks; only numeric-format errors are reported.
	BlankCellsAllowed BlankCellPolicy = iota
	// BlankCellsRejected reports every blank cell that falls in a required column.
	BlankCellsRejected
)

// String returns the policy name used in config and CLI flags.
func (p BlankCellPolicy) String() string {
	if p == BlankCellsRejected {
		return "reject"
	}
	return "allow"
}

// Schema describes the columns a dataset must carry.
// Labels are compared after trimming and lower-casing; the spelling given
// here is the canonical one used in defect messages.
type Schema struct {
	Required   []string
	Numeric    []string // Subset of Required that must parse as numbers
	BlankCells BlankCellPolicy
}

// normalizeLabel is the comparison form of a header label.
func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// labelSet returns the normalized forms of labels.
func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[normalizeLabel(l)] = true
	}
	return set
}

// WithBlankCells returns a copy of the schema using policy p.
func (s Schema) WithBlankCells(p BlankCellPolicy) Schema {
	s.Required = append([]string(nil), s.Required...)
	s.Numeric = append([]string(nil), s.Numeric...)
	s.BlankCells = p
	return s
}

// IsNumeric reports whether label names a numeric-only column.
func (s Schema) IsNumeric(label string) bool {
	n := normalizeLabel(label)
	for _, l := range s.Numeric {
		if normalizeLabel(l) == n {
			return true
		}
	}
	return false
}

// IsRequired reports whether label names a required column.
func (s Schema) IsRequired(label string) bool {
	n := normalizeLabel(label)
	for _, l := range s.Required {
		if normalizeLabel(l) == n {
			return true
		}
	}
	return false
}
