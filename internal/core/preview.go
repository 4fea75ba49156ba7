package core

// Preview limits
const (
	PreviewMaxColumns = 8
	PreviewMaxRows    = 5
	previewBlank      = "-"
)

// Preview is the capped view of accepted records shown before submission.
type Preview struct {
	Columns       []string   `json:"columns"`
	HiddenColumns int        `json:"hiddenColumns"`
	Rows          [][]string `json:"rows"`
	TotalRows     int        `json:"totalRows"`
}

// Truncated reports whether rows beyond the sample exist.
func (p Preview) Truncated() bool {
	return p.TotalRows > len(p.Rows)
}

// BuildPreview projects the first PreviewMaxRows records onto their first
// PreviewMaxColumns labels. Empty values render as "-".
func BuildPreview(records []Record) Preview {
	p := Preview{TotalRows: len(records), Rows: [][]string{}}
	if len(records) == 0 {
		p.Columns = []string{}
		return p
	}

	labels := records[0].Labels()
	ncols := min(len(labels), PreviewMaxColumns)
	p.Columns = labels[:ncols]
	p.HiddenColumns = len(labels) - ncols

	for _, rec := range records[:min(len(records), PreviewMaxRows)] {
		row := make([]string, ncols)
		for i := 0; i < ncols; i++ {
			v := ""
			if i < len(rec) {
				v = rec[i].Value
			}
			if v == "" {
				v = previewBlank
			}
			row[i] = v
		}
		p.Rows = append(p.Rows, row)
	}

	return p
}
