package ledger

// Prober reports whether a notification of kind is shown at the given row.
type Prober func(kind string, row int) bool

// Scan counts stacked notifications row by row, starting at row 0. Rows are
// stacked without gaps, so the scan stops at the first empty row. Only one kind
// can occupy a row, so the first kind that matches ends the row.
func Scan(kinds []string, maxRows int, probe Prober) map[string]int {
	found := make(map[string]int)
	for row := 0; row < maxRows; row++ {
		hit := false
		for _, kind := range kinds {
			if probe(kind, row) {
				found[kind]++
				hit = true
				break
			}
		}
		if !hit {
			break
		}
	}
	return found
}
