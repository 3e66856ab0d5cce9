package kpi

import (
	"encoding/json"
	"maps"
	"slices"
)

// Row maps column names to values. Values are int64, float64, string or nil.
type Row map[string]any

// Table is an ordered, immutable row set with named columns. A nil *Table
// behaves like an empty one.
type Table struct {
	columns []string
	rows    []Row
}

// NewTable copies columns and rows into a new table.
func NewTable(columns []string, rows []Row) *Table {
	t := &Table{
		columns: slices.Clone(columns),
		rows:    make([]Row, len(rows)),
	}
	for i, r := range rows {
		t.rows[i] = maps.Clone(r)
	}
	return t
}

// EmptyTable returns a table with no columns and no rows.
func EmptyTable() *Table {
	return &Table{}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (t *Table) IsEmpty() bool {
	return t.Len() == 0
}

func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.columns)
}

func (t *Table) HasColumn(name string) bool {
	return t != nil && slices.Contains(t.columns, name)
}

// Row returns a copy of row i, nil when the row does not exist.
func (t *Table) Row(i int) Row {
	if t == nil || i < 0 || i >= len(t.rows) {
		return nil
	}
	return maps.Clone(t.rows[i])
}

// Rows returns a copy of every row.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = maps.Clone(r)
	}
	return out
}

// Value returns the raw value at row i, column name. The bool is false when
// the row or column does not exist.
func (t *Table) Value(i int, name string) (any, bool) {
	if t == nil || i < 0 || i >= len(t.rows) || !t.HasColumn(name) {
		return nil, false
	}
	return t.rows[i][name], true
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) []any {
	if !t.HasColumn(name) {
		return nil
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[name]
	}
	return out
}

// Filter returns the rows for which keep reports true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	if t == nil {
		return EmptyTable()
	}
	var rows []Row
	for _, r := range t.rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return NewTable(t.columns, rows)
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if t == nil {
		return EmptyTable()
	}
	n = max(0, min(n, len(t.rows)))
	return NewTable(t.columns, t.rows[:n])
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return EmptyTable()
	}
	return NewTable(t.columns, t.rows)
}

type tableJSON struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func (t *Table) MarshalJSON() ([]byte, error) {
	out := tableJSON{Columns: []string{}, Rows: []Row{}}
	if t != nil {
		if t.columns != nil {
			out.Columns = t.columns
		}
		if t.rows != nil {
			out.Rows = t.rows
		}
	}
	return json.Marshal(out)
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var in tableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = *NewTable(in.Columns, in.Rows)
	return nil
}
