// Package analytics turns a spend question and sheet rows into totals over
// a calendar range.
package analytics

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoDataRows      = errors.New("sheet has no data rows")
	ErrColumnsNotFound = errors.New("date or spend column not found")
)

// Header keywords, matched case-insensitively as substrings.
var (
	dateKeywords  = []string{"date"}
	spendKeywords = []string{"ad spend", "ads spend", "spend", "ad_spend"}
)

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// Point is a single dated observation. Value is nil when the spend cell
// could not be parsed.
type Point struct {
	Date  Day      `json:"date"`
	Value *float64 `json:"value"`
}

// Summary is the result of Summarize.
type Summary struct {
	Range          DateRange `json:"range"`
	DateColumn     string    `json:"dateColumn"`
	SpendColumn    string    `json:"spendColumn"`
	HasDataInRange bool      `json:"hasDataInRange"`
	Total          float64   `json:"total"`
	Days           int       `json:"days"`
	LatestInRange  *Point    `json:"latestInRange,omitempty"`
	LatestOverall  *Point    `json:"latestOverall,omitempty"`
}

// Summarize aggregates the spend column of rows over the range named in
// question, relative to today's calendar date. rows[0] is the header row.
func Summarize(question string, rows [][]string, today time.Time) (*Summary, error) {
	if len(rows) < 2 {
		return nil, ErrNoDataRows
	}

	dateCol := findColumn(rows[0], dateKeywords)
	spendCol := findColumn(rows[0], spendKeywords)
	if dateCol < 0 || spendCol < 0 {
		return nil, fmt.Errorf("%w (headers: %s)", ErrColumnsNotFound, strings.Join(rows[0], ", "))
	}

	sum := &Summary{
		Range:       ParseRange(question, DayOf(today)),
		DateColumn:  rows[0][dateCol],
		SpendColumn: rows[0][spendCol],
	}
	seen := make(map[Day]struct{})

	for _, row := range rows[1:] {
		day, ok := ParseDay(cell(row, dateCol))
		if !ok {
			continue
		}
		value, hasValue := ParseNumber(cell(row, spendCol))

		if sum.LatestOverall == nil || day.After(sum.LatestOverall.Date) {
			p := Point{Date: day}
			if hasValue {
				p.Value = &value
			}
			sum.LatestOverall = &p
		}

		if !hasValue || !sum.Range.Contains(day) {
			continue
		}
		sum.Total += value
		seen[day] = struct{}{}
		if sum.LatestInRange == nil || !day.Before(sum.LatestInRange.Date) {
			v := value
			sum.LatestInRange = &Point{Date: day, Value: &v}
		}
	}

	sum.Days = len(seen)
	sum.HasDataInRange = sum.Days > 0
	return sum, nil
}

// ParseNumber strips everything but digits, '.' and '-' and parses the rest.
// Commas are dropped as thousands separators, so "1,234.56" is 1234.56.
// What is left must be a single well-formed number: "12-5" and "1.2.3" are
// reported as absent, never truncated to a leading prefix.
func ParseNumber(s string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Describe renders the summary as a short English answer.
func (s *Summary) Describe() string {
	var b strings.Builder
	if s.HasDataInRange {
		fmt.Fprintf(&b, "%s for %s: %s across %d day", s.SpendColumn, s.Range.Describe(), money(s.Total), s.Days)
		if s.Days != 1 {
			b.WriteString("s")
		}
		b.WriteString(".")
		if s.LatestInRange != nil && s.Days > 1 {
			fmt.Fprintf(&b, " Most recent: %s on %s.", money(*s.LatestInRange.Value), s.LatestInRange.Date)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "No %s data for %s.", s.SpendColumn, s.Range.Describe())
	if p := s.LatestOverall; p != nil {
		if p.Value != nil {
			fmt.Fprintf(&b, " Latest available is %s on %s.", money(*p.Value), p.Date)
		} else {
			fmt.Fprintf(&b, " Latest dated row is %s, with no spend value.", p.Date)
		}
	}
	return b.String()
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func findColumn(headers []string, keywords []string) int {
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, k := range keywords {
			if strings.Contains(h, k) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
