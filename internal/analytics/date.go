package analytics

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Day is a calendar date, stored as midnight UTC so that comparisons never
// see a time-of-day or zone offset.
type Day struct {
	time.Time
}

// DayOf drops the time of day from t, keeping t's own calendar date.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// AddDays returns the day n days later (or earlier when n < 0).
func (d Day) AddDays(n int) Day { return Day{d.AddDate(0, 0, n)} }

func (d Day) Before(o Day) bool { return d.Time.Before(o.Time) }
func (d Day) After(o Day) bool  { return d.Time.After(o.Time) }

func (d Day) String() string { return d.Format(time.DateOnly) }

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Sheets and CSV exports show up with any of these.
var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1-2-2006",
	"2006-1-2",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"Monday, Jan 2, 2006",
	time.RFC3339,
	time.DateTime,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// ParseDay parses a sheet cell as a calendar date.
func ParseDay(s string) (Day, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), true
		}
	}
	// Anything else a spreadsheet or a person might type, month-first.
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return Day{}, false
	}
	return DayOf(t), true
}
