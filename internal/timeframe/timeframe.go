package timeframe

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format accepted from clients and stored in
// the text date columns.
const DateLayout = "2006-01-02"

// endOfDaySuffix extends a calendar date to the last instant the text columns
// can hold for that day, so lexical BETWEEN includes rows stamped late on the
// end date.
const endOfDaySuffix = " 23:59:59.999999"

// MonthBucketFormat is the SQLite strftime format of a monthly bucket.
const MonthBucketFormat = "%Y-%m-01"

// DateRange is an inclusive window of calendar days. Start and End carry no
// time of day; the bound helpers render them for comparison against text dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both ends to their calendar day in UTC.
// An inverted range is kept as given.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: truncateDay(start), End: truncateDay(end)}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartBound renders the first instant of the window as sortable text.
func (r DateRange) StartBound() string {
	return r.Start.Format(DateLayout)
}

// EndBound renders the last instant of the window as sortable text.
func (r DateRange) EndBound() string {
	return r.End.Format(DateLayout) + endOfDaySuffix
}

// Inverted reports whether the start falls after the end. Such a window
// matches no rows in any date filtered KPI.
func (r DateRange) Inverted() bool {
	return r.Start.After(r.End)
}

// Days returns the number of calendar days covered, 0 for an inverted range.
func (r DateRange) Days() int {
	if r.Inverted() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether t falls on a day inside the window.
func (r DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(r.Start) && !day.After(r.End)
}

// Months returns the first day of every calendar month the window touches,
// ascending.
func (r DateRange) Months() []time.Time {
	if r.Inverted() {
		return nil
	}
	var months []time.Time
	cur := time.Date(r.Start.Year(), r.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(r.End) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}
