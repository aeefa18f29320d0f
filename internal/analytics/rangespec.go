package analytics

import "strings"

// RangeLabel names how a DateRange was chosen.
type RangeLabel string

const (
	LabelYesterday RangeLabel = "yesterday"
	LabelLast7Days RangeLabel = "last_7_days"
	LabelLastMonth RangeLabel = "last_month"
	LabelDefault   RangeLabel = "default"
)

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Day        `json:"start"`
	End   Day        `json:"end"`
	Label RangeLabel `json:"label"`
}

// Contains reports whether d falls within the range, inclusive.
func (r DateRange) Contains(d Day) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Describe renders the range for people.
func (r DateRange) Describe() string {
	switch r.Label {
	case LabelLast7Days:
		return "the last 7 days (" + r.Start.String() + " to " + r.End.String() + ")"
	case LabelLastMonth:
		return r.Start.Format("January 2006")
	default:
		return "yesterday (" + r.Start.String() + ")"
	}
}

// ParseRange picks the reporting range mentioned in question. Phrases are
// checked in priority order; with none present the range is yesterday,
// labelled LabelDefault.
func ParseRange(question string, today Day) DateRange {
	q := strings.ToLower(question)
	yesterday := today.AddDays(-1)

	switch {
	case strings.Contains(q, "last 7 days"), strings.Contains(q, "last seven days"):
		return DateRange{Start: yesterday.AddDays(-6), End: yesterday, Label: LabelLast7Days}
	case strings.Contains(q, "last month"):
		firstOfThis := Day{today.AddDate(0, 0, 1-today.Day())}
		return DateRange{
			Start: Day{firstOfThis.AddDate(0, -1, 0)},
			End:   firstOfThis.AddDays(-1),
			Label: LabelLastMonth,
		}
	case strings.Contains(q, "yesterday"):
		return DateRange{Start: yesterday, End: yesterday, Label: LabelYesterday}
	default:
		return DateRange{Start: yesterday, End: yesterday, Label: LabelDefault}
	}
}
