package tools

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strings"
)

// Args is the validated argument payload of one tool call. The set of
// implementations is closed.
type Args interface {
	tool() Name
}

type SearchArgs struct{ Query string }
type ReadSheetArgs struct{ Index int }
type ReadDocArgs struct{ Index int }
type RespondArgs struct{ Text string }
type SummarizeSpendArgs struct {
	Index    int
	Question string
}
type SearchBoardsArgs struct{ BoardName string }
type GetBoardItemsArgs struct{ BoardID string }

func (SearchArgs) tool() Name         { return SearchDrive }
func (ReadSheetArgs) tool() Name      { return ReadSheet }
func (ReadDocArgs) tool() Name        { return ReadDoc }
func (RespondArgs) tool() Name        { return Respond }
func (SummarizeSpendArgs) tool() Name { return SummarizeSpend }
func (SearchBoardsArgs) tool() Name   { return SearchBoards }
func (GetBoardItemsArgs) tool() Name  { return GetBoardItems }

// ParseArgs validates raw JSON arguments for the named tool. Missing,
// mistyped and unexpected fields are all rejected here.
func ParseArgs(name Name, raw json.RawMessage) (Args, *Failure) {
	fields, f := decodeObject(raw)
	if f != nil {
		return nil, f
	}
	p := argParser{tool: name, fields: fields}

	var args Args
	switch name {
	case SearchDrive:
		args = SearchArgs{Query: p.text("query", true)}
	case ReadSheet:
		args = ReadSheetArgs{Index: p.index("index")}
	case ReadDoc:
		args = ReadDocArgs{Index: p.index("index")}
	case Respond:
		args = RespondArgs{Text: p.text("text", true)}
	case SummarizeSpend:
		args = SummarizeSpendArgs{Index: p.index("index"), Question: p.text("question", true)}
	case SearchBoards:
		args = SearchBoardsArgs{BoardName: p.text("boardName", true)}
	case GetBoardItems:
		args = GetBoardItemsArgs{BoardID: p.id("boardId")}
	default:
		return nil, failf(KindUnknownTool, "unknown tool %q", name)
	}
	p.rejectExtra()
	if p.err != nil {
		return nil, p.err
	}
	return args, nil
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, *Failure) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]json.RawMessage{}, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, failf(KindValidation, "arguments must be a JSON object: %v", err)
	}
	return fields, nil
}

// argParser records the first problem and ignores later lookups.
type argParser struct {
	tool   Name
	fields map[string]json.RawMessage
	used   []string
	err    *Failure
}

func (p *argParser) take(field string) (json.RawMessage, bool) {
	p.used = append(p.used, field)
	if p.err != nil {
		return nil, false
	}
	v, ok := p.fields[field]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		p.err = failf(KindValidation, "%s: missing required argument %q", p.tool, field)
		return nil, false
	}
	return v, true
}

func (p *argParser) text(field string, nonEmpty bool) string {
	v, ok := p.take(field)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		p.err = failf(KindValidation, "%s: argument %q must be a string", p.tool, field)
		return ""
	}
	if nonEmpty && strings.TrimSpace(s) == "" {
		p.err = failf(KindValidation, "%s: argument %q must not be empty", p.tool, field)
		return ""
	}
	return s
}

func (p *argParser) index(field string) int {
	v, ok := p.take(field)
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		p.err = failf(KindValidation, "%s: argument %q must be an integer from the search results", p.tool, field)
		return 0
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		p.err = failf(KindValidation, "%s: argument %q must be a positive integer, got %v", p.tool, field, f)
		return 0
	}
	return int(f)
}

// id accepts a string or an integer, since board ids are numeric strings
// that engines often send as numbers.
func (p *argParser) id(field string) string {
	v, ok := p.take(field)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			p.err = failf(KindValidation, "%s: argument %q must not be empty", p.tool, field)
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil || strings.ContainsAny(n.String(), ".eE-") {
		p.err = failf(KindValidation, "%s: argument %q must be a board id string", p.tool, field)
		return ""
	}
	return n.String()
}

func (p *argParser) rejectExtra() {
	if p.err != nil {
		return
	}
	var extra []string
	for k := range p.fields {
		if !slices.Contains(p.used, k) {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		slices.Sort(extra)
		p.err = failf(KindValidation, "%s: unexpected argument(s) %s", p.tool, strings.Join(extra, ", "))
	}
}
