package timeframe

import (
	"fmt"
	"strings"
	"time"
)

type DateRangeParserParams struct {
	FromDate string
	ToDate   string
}

// DateRangeParser turns the optional from/to query values into a DateRange,
// falling back to a fixed default window for whatever is missing.
type DateRangeParser struct {
	defaults DateRange
}

func NewDateRangeParser(defaultFrom, defaultTo time.Time) *DateRangeParser {
	return &DateRangeParser{defaults: NewDateRange(defaultFrom, defaultTo)}
}

// Defaults returns the window used when no dates are supplied.
func (p *DateRangeParser) Defaults() DateRange {
	return p.defaults
}

func (p *DateRangeParser) Parse(params DateRangeParserParams) (DateRange, error) {
	from, err := parseDateWithDefault(params.FromDate, p.defaults.Start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid 'from' date: %w", err)
	}

	to, err := parseDateWithDefault(params.ToDate, p.defaults.End)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid 'to' date: %w", err)
	}

	return NewDateRange(from, to), nil
}

func parseDateWithDefault(dateStr string, defaultDate time.Time) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return defaultDate, nil
	}
	return time.Parse(DateLayout, dateStr)
}
