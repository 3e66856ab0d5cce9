package kpi

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Querier runs one read-only SQL statement with positional arguments.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*Table, error)
}

// GormQuerier runs raw SQL through a gorm connection pool.
type GormQuerier struct {
	db *gorm.DB
}

func NewGormQuerier(db *gorm.DB) *GormQuerier {
	return &GormQuerier{db: db}
}

func (q *GormQuerier) Query(ctx context.Context, query string, args ...any) (*Table, error) {
	if q.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	rows, err := q.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewTable(columns, out), nil
}

// normalizeValue narrows driver values to int64, float64, string or nil.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return x
	}
}
