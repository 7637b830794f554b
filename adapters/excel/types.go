package excel

import "bmcount/domain/countdata"

// Column names recognised in a count table header (case-insensitive).
const (
	ColumnGroup = "group"
	ColumnValue = "value"
	ColumnCount = "count"
)

// DefaultGroup names the single group of a table without a group column.
const DefaultGroup = "all"

// CountTable is a long-format count table: one row per (group, value)
// with the number of observations of that value in that group.
type CountTable struct {
	Groups []string // Group names in order of first appearance
	Counts map[string]countdata.CountMap[float64]
}

// Joined merges every group of the table into one Count Map.
func (t *CountTable) Joined() countdata.CountMap[float64] {
	maps := make([]countdata.CountMap[float64], 0, len(t.Groups))
	for _, g := range t.Groups {
		maps = append(maps, t.Counts[g])
	}
	return countdata.Join(maps...)
}
