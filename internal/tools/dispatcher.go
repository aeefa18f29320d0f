package tools

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/soyeahso/drivedesk/internal/analytics"
	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/metrics"
	"github.com/soyeahso/drivedesk/internal/session"
)

const (
	DefaultMaxRows          = 50
	DefaultMaxDocumentChars = 20000
)

// Call is one tool invocation requested by the engine.
type Call struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Options tunes payload sizes and the analytics clock.
type Options struct {
	MaxRows          int
	MaxDocumentChars int
	Location         *time.Location
	Now              func() time.Time
}

// Dispatcher validates tool calls and runs them against the backends.
type Dispatcher struct {
	refs   session.References
	files  FileBackend
	boards BoardBackend
	opts   Options
	log    *logging.Logger
}

// NewDispatcher wires a dispatcher. boards may be nil, in which case board
// tools are not offered.
func NewDispatcher(refs session.References, files FileBackend, boards BoardBackend, opts Options, log *logging.Logger) *Dispatcher {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.MaxDocumentChars <= 0 {
		opts.MaxDocumentChars = DefaultMaxDocumentChars
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{refs: refs, files: files, boards: boards, opts: opts, log: log.Sub("dispatch")}
}

// Definitions lists the tools this dispatcher can run.
func (d *Dispatcher) Definitions() []Definition {
	return Definitions(d.boards != nil)
}

// Dispatch runs one call for userID. A non-nil error is fatal for the
// current turn; everything else, including failures the engine should
// explain to the user, is carried in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, call Call) (Result, error) {
	name, ok := Canonical(call.Name)
	if !ok {
		res := Fail(Name(call.Name), failf(KindUnknownTool, "unknown tool %q", call.Name))
		d.record(userID, res)
		return res, nil
	}

	args, f := ParseArgs(name, call.Arguments)
	if f != nil {
		res := Fail(name, f)
		d.record(userID, res)
		return res, nil
	}

	res, err := d.run(ctx, userID, args)
	if err != nil {
		var be *BackendError
		if errors.As(err, &be) && errors.Is(err, ErrNotAccessible) {
			res, err = Fail(name, failf(KindUnavailable, "could not %s: %v", be.Op, be.Err)), nil
		} else {
			metrics.ToolDispatched(string(name), "fatal")
			d.log.Error().Err(err).Str("user", userID).Str("tool", string(name)).Msg("tool backend failed")
			return Result{}, err
		}
	}
	d.record(userID, res)
	return res, nil
}

func (d *Dispatcher) record(userID string, res Result) {
	metrics.ToolDispatched(string(res.Tool), res.Outcome())
	ev := d.log.Debug()
	if !res.OK() {
		ev = d.log.Warn().Str("error", res.Failure().Message)
	}
	ev.Str("user", userID).Str("tool", string(res.Tool)).Str("outcome", res.Outcome()).Msg("tool dispatched")
}

func (d *Dispatcher) run(ctx context.Context, userID string, args Args) (Result, error) {
	switch a := args.(type) {
	case SearchArgs:
		return d.search(ctx, userID, a)
	case ReadSheetArgs:
		return d.readSheet(ctx, userID, a)
	case ReadDocArgs:
		return d.readDoc(ctx, userID, a)
	case SummarizeSpendArgs:
		return d.summarizeSpend(ctx, userID, a)
	case RespondArgs:
		return Success(Respond, RespondPayload{Text: a.Text}), nil
	case SearchBoardsArgs:
		return d.searchBoards(ctx, userID, a)
	case GetBoardItemsArgs:
		return d.boardItems(ctx, userID, a)
	}
	return Fail(args.tool(), failf(KindUnknownTool, "unsupported tool %q", args.tool())), nil
}

// Payloads returned to the engine.
type (
	SearchPayload struct {
		Query string                      `json:"query"`
		Files []domain.ResourceDescriptor `json:"files"`
		Note  string                      `json:"note,omitempty"`
	}

	SheetPayload struct {
		Index     int        `json:"index"`
		Name      string     `json:"name"`
		Rows      [][]string `json:"rows"`
		TotalRows int        `json:"totalRows"`
		Truncated bool       `json:"truncated,omitempty"`
	}

	DocumentPayload struct {
		Index     int    `json:"index"`
		Name      string `json:"name"`
		Text      string `json:"text"`
		Truncated bool   `json:"truncated,omitempty"`
	}

	SpendPayload struct {
		Index   int                `json:"index"`
		Name    string             `json:"name"`
		Summary *analytics.Summary `json:"summary"`
		Answer  string             `json:"answer"`
	}

	RespondPayload struct {
		Text string `json:"text"`
	}

	BoardsPayload struct {
		Query  string         `json:"query"`
		Boards []domain.Board `json:"boards"`
	}

	BoardItemsPayload struct {
		Board domain.Board       `json:"board"`
		Items []domain.BoardItem `json:"items"`
	}
)

func (d *Dispatcher) search(ctx context.Context, userID string, a SearchArgs) (Result, error) {
	found, err := d.files.SearchResources(ctx, a.Query)
	if err != nil {
		return Result{}, &BackendError{Tool: SearchDrive, Op: "search", Err: err}
	}
	descriptors := domain.NumberResources(found)
	if err := d.refs.SetLastSearch(ctx, userID, descriptors); err != nil {
		return Result{}, &BackendError{Tool: SearchDrive, Op: "store results", Err: err}
	}
	p := SearchPayload{Query: a.Query, Files: descriptors}
	if len(descriptors) == 0 {
		p.Note = "no files matched; ask the user for a different name"
	}
	return Success(SearchDrive, p), nil
}

// resolve looks up index in the user's last search and follows shortcuts,
// then checks the resulting kind against want.
func (d *Dispatcher) resolve(ctx context.Context, userID string, tool Name, index int, want domain.ResourceKind) (domain.ResourceDescriptor, *Failure, error) {
	desc, err := d.refs.Resolve(ctx, userID, index)
	if errors.Is(err, session.ErrReferenceNotFound) {
		return desc, failf(KindReferenceNotFound,
			"there is no file #%d in the latest search results; run search_drive first", index), nil
	}
	if err != nil {
		return desc, nil, &BackendError{Tool: tool, Op: "resolve reference", Err: err}
	}

	desc, err = FollowShortcut(ctx, d.files, desc)
	if err != nil {
		return desc, nil, &BackendError{Tool: tool, Op: "resolve shortcut", Err: err}
	}

	if desc.Kind() != want {
		return desc, failf(KindTypeMismatch, "%q is a %s, not a %s",
			desc.Name, domain.DescribeMime(desc.MimeType), kindLabel(want)), nil
	}
	return desc, nil, nil
}

func kindLabel(k domain.ResourceKind) string {
	if k == domain.KindTabular {
		return "Google Sheet"
	}
	return "Google Doc or PDF"
}

func (d *Dispatcher) readSheet(ctx context.Context, userID string, a ReadSheetArgs) (Result, error) {
	desc, f, err := d.resolve(ctx, userID, ReadSheet, a.Index, domain.KindTabular)
	if err != nil || f != nil {
		return Fail(ReadSheet, f), err
	}
	rows, err := d.files.FetchTabular(ctx, desc.ID)
	if err != nil {
		return Result{}, &BackendError{Tool: ReadSheet, Op: "fetch " + desc.Name, Err: err}
	}
	trimmed, truncated := tailRows(rows, d.opts.MaxRows)
	return Success(ReadSheet, SheetPayload{
		Index:     desc.Index,
		Name:      desc.Name,
		Rows:      trimmed,
		TotalRows: len(rows),
		Truncated: truncated,
	}), nil
}

// tailRows keeps the header and the last limit-1 data rows.
func tailRows(rows [][]string, limit int) ([][]string, bool) {
	if len(rows) <= limit || limit < 2 {
		return rows, false
	}
	out := make([][]string, 0, limit)
	out = append(out, rows[0])
	out = append(out, rows[len(rows)-(limit-1):]...)
	return out, true
}

func (d *Dispatcher) readDoc(ctx context.Context, userID string, a ReadDocArgs) (Result, error) {
	desc, f, err := d.resolve(ctx, userID, ReadDoc, a.Index, domain.KindDocument)
	if err != nil || f != nil {
		return Fail(ReadDoc, f), err
	}
	text, err := d.files.FetchDocumentText(ctx, desc.ID, desc.MimeType)
	if err != nil {
		return Result{}, &BackendError{Tool: ReadDoc, Op: "fetch " + desc.Name, Err: err}
	}
	p := DocumentPayload{Index: desc.Index, Name: desc.Name, Text: text}
	if r := []rune(text); len(r) > d.opts.MaxDocumentChars {
		p.Text, p.Truncated = string(r[:d.opts.MaxDocumentChars]), true
	}
	return Success(ReadDoc, p), nil
}

func (d *Dispatcher) summarizeSpend(ctx context.Context, userID string, a SummarizeSpendArgs) (Result, error) {
	desc, f, err := d.resolve(ctx, userID, SummarizeSpend, a.Index, domain.KindTabular)
	if err != nil || f != nil {
		return Fail(SummarizeSpend, f), err
	}
	rows, err := d.files.FetchTabular(ctx, desc.ID)
	if err != nil {
		return Result{}, &BackendError{Tool: SummarizeSpend, Op: "fetch " + desc.Name, Err: err}
	}
	sum, err := analytics.Summarize(a.Question, rows, d.opts.Now().In(d.opts.Location))
	if err != nil {
		return Fail(SummarizeSpend, failf(KindAnalysis, "%q: %v", desc.Name, err)), nil
	}
	return Success(SummarizeSpend, SpendPayload{
		Index:   desc.Index,
		Name:    desc.Name,
		Summary: sum,
		Answer:  sum.Describe(),
	}), nil
}

func (d *Dispatcher) searchBoards(ctx context.Context, userID string, a SearchBoardsArgs) (Result, error) {
	if d.boards == nil {
		return Fail(SearchBoards, failf(KindUnavailable, "board lookups are not configured")), nil
	}
	boards, err := d.boards.SearchBoards(ctx, a.BoardName)
	if err != nil {
		return Result{}, &BackendError{Tool: SearchBoards, Op: "search", Err: err}
	}
	if err := d.refs.SetLastBoards(ctx, userID, boards); err != nil {
		return Result{}, &BackendError{Tool: SearchBoards, Op: "store results", Err: err}
	}
	if boards == nil {
		boards = []domain.Board{}
	}
	return Success(SearchBoards, BoardsPayload{Query: a.BoardName, Boards: boards}), nil
}

func (d *Dispatcher) boardItems(ctx context.Context, userID string, a GetBoardItemsArgs) (Result, error) {
	if d.boards == nil {
		return Fail(GetBoardItems, failf(KindUnavailable, "board lookups are not configured")), nil
	}
	board, err := d.refs.ResolveBoard(ctx, userID, a.BoardID)
	if errors.Is(err, session.ErrReferenceNotFound) {
		return Fail(GetBoardItems, failf(KindReferenceNotFound,
			"board %s is not in the latest search_boards results; run search_boards first", a.BoardID)), nil
	}
	if err != nil {
		return Result{}, &BackendError{Tool: GetBoardItems, Op: "resolve board", Err: err}
	}
	items, err := d.boards.FetchBoardItems(ctx, board.ID)
	if err != nil {
		return Result{}, &BackendError{Tool: GetBoardItems, Op: "fetch " + board.Name, Err: err}
	}
	if items == nil {
		items = []domain.BoardItem{}
	}
	return Success(GetBoardItems, BoardItemsPayload{Board: board, Items: items}), nil
}
