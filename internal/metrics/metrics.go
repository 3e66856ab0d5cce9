// Package metrics derives headline values and display selections from KPI
// tables. Every accessor here is total: missing data resolves to a default.
package metrics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"supplykpi/internal/kpi"
)

// ToFloat coerces a loosely typed cell to float64. Text holding a number is
// accepted; nil, empty and non-numeric values are not.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return 0, false
		}
		v = x
	case bool:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Value returns the first row's cell of column coerced to T. The bool is false
// when the table is empty, the column is missing, the cell is null or it does
// not coerce.
func Value[T any](t *kpi.Table, column string) (T, bool) {
	var zero T
	raw, ok := t.Value(0, column)
	if !ok || raw == nil {
		return zero, false
	}
	return coerce[T](raw)
}

// Scalar is Value with a fallback.
func Scalar[T any](t *kpi.Table, column string, def T) T {
	if v, ok := Value[T](t, column); ok {
		return v
	}
	return def
}

func coerce[T any](raw any) (T, bool) {
	var zero T
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case float64:
		f, ok := ToFloat(raw)
		if !ok {
			return zero, false
		}
		out = f
	case int64:
		if i, ok := raw.(int64); ok {
			return any(i).(T), true
		}
		f, ok := ToFloat(raw)
		if !ok {
			return zero, false
		}
		out = int64(f)
	case int:
		f, ok := ToFloat(raw)
		if !ok {
			return zero, false
		}
		out = int(f)
	case string:
		out, err = cast.ToStringE(raw)
	case bool:
		out, err = cast.ToBoolE(raw)
	default:
		v, ok := raw.(T)
		return v, ok
	}
	if err != nil {
		return zero, false
	}
	return out.(T), true
}

// Sum adds every numeric cell of column.
func Sum(t *kpi.Table, column string) float64 {
	total := 0.0
	for _, v := range t.Column(column) {
		if f, ok := ToFloat(v); ok {
			total += f
		}
	}
	return total
}

// TopN coerces column to float64, drops rows where that fails and returns the
// n largest rows in descending order. Ties keep their original order.
func TopN(t *kpi.Table, column string, n int) *kpi.Table {
	if !t.HasColumn(column) || n <= 0 {
		return kpi.NewTable(t.Columns(), nil)
	}

	rows := make([]kpi.Row, 0, t.Len())
	for _, r := range t.Rows() {
		f, ok := ToFloat(r[column])
		if !ok {
			continue
		}
		r[column] = f
		rows = append(rows, r)
	}

	slices.SortStableFunc(rows, func(a, b kpi.Row) int {
		return cmp.Compare(b[column].(float64), a[column].(float64))
	})

	return kpi.NewTable(t.Columns(), rows).Head(n)
}

// FilterPositive keeps rows whose column is a number greater than zero.
func FilterPositive(t *kpi.Table, column string) *kpi.Table {
	if !t.HasColumn(column) {
		return t.Clone()
	}
	return t.Filter(func(r kpi.Row) bool {
		f, ok := ToFloat(r[column])
		return ok && f > 0
	})
}
