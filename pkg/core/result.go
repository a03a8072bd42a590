package core

// Row is one record of a result set keyed by column name.
// Values are scalars (string, bool, int64, float64, time.Time, []byte) or nil.
type Row map[string]any

// ResultSet is an immutable snapshot of a query result.
// A new ResultSet supersedes the previous one on every data refresh.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Column returns the values of col across all rows, in row order.
// Rows missing the column contribute nil.
func (rs *ResultSet) Column(col string) []any {
	if rs == nil {
		return []any{}
	}
	values := make([]any, len(rs.Rows))
	for i, row := range rs.Rows {
		values[i] = row[col]
	}
	return values
}

// RowValues returns the rows as a slice of plain maps, the shape handed to
// templates and the rendering engine as dataset source.
func (rs *ResultSet) RowValues() []any {
	if rs == nil {
		return []any{}
	}
	out := make([]any, len(rs.Rows))
	for i, row := range rs.Rows {
		out[i] = map[string]any(row)
	}
	return out
}

// Flags are named boolean switches delivered with every payload.
type Flags map[string]bool

// FlagAdvancedMode enables dynamic-code templates.
const FlagAdvancedMode = "isAdvancedMode"

// AdvancedMode reports whether the advanced mode flag is set.
func (f Flags) AdvancedMode() bool {
	return f[FlagAdvancedMode]
}

// Payload is what the host delivers on initial render and on every refresh.
type Payload struct {
	Columns []string `json:"columns"`
	Data    []Row    `json:"data"`
	Flags   Flags    `json:"flags"`
}

// ResultSet returns the payload's tabular part.
func (p Payload) ResultSet() *ResultSet {
	return &ResultSet{Columns: p.Columns, Rows: p.Data}
}
