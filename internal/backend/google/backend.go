// Package google reads Drive, Sheets and Docs on behalf of the tools.
package google

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/tools"
)

const (
	defaultPageSize = 20
	maxPDFBytes     = 20 << 20
	sheetRange      = "A:Z"
)

// Config selects credentials and search behavior.
type Config struct {
	CredentialsFile string
	TokenFile       string
	Subject         string
	PageSize        int64
	SharedDrives    bool
}

// Backend implements tools.FileBackend.
type Backend struct {
	drive        *drive.Service
	sheets       *sheets.Service
	docs         *docs.Service
	pageSize     int64
	sharedDrives bool
	log          *logging.Logger
}

// New builds a backend using credentials from cfg.
func New(ctx context.Context, cfg Config, log *logging.Logger) (*Backend, error) {
	client, err := HTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg, log, option.WithHTTPClient(client))
}

// NewWithOptions builds a backend from explicit client options; every
// service receives the same options.
func NewWithOptions(ctx context.Context, cfg Config, log *logging.Logger, opts ...option.ClientOption) (*Backend, error) {
	ds, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	ss, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	dcs, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return newBackend(ds, ss, dcs, cfg, log), nil
}

func newBackend(ds *drive.Service, ss *sheets.Service, dcs *docs.Service, cfg Config, log *logging.Logger) *Backend {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &Backend{
		drive:        ds,
		sheets:       ss,
		docs:         dcs,
		pageSize:     cfg.PageSize,
		sharedDrives: cfg.SharedDrives,
		log:          log.Sub("google"),
	}
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// SearchQuery builds the Drive query for a name search.
func SearchQuery(name string) string {
	return fmt.Sprintf("name contains '%s' and trashed = false", queryEscaper.Replace(strings.TrimSpace(name)))
}

func (b *Backend) SearchResources(ctx context.Context, query string) ([]domain.Resource, error) {
	call := b.drive.Files.List().
		Context(ctx).
		Q(SearchQuery(query)).
		PageSize(b.pageSize).
		OrderBy("modifiedTime desc").
		Fields("files(id, name, mimeType)")
	if b.sharedDrives {
		call = call.SupportsAllDrives(true).IncludeItemsFromAllDrives(true).Corpora("allDrives")
	}

	r, err := call.Do()
	if err != nil {
		return nil, classify("search drive", err)
	}
	out := make([]domain.Resource, 0, len(r.Files))
	for _, f := range r.Files {
		out = append(out, domain.Resource{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
	}
	b.log.Debug().Str("query", query).Int("results", len(out)).Msg("drive search")
	return out, nil
}

func (b *Backend) ResolveShortcut(ctx context.Context, id string) (domain.ShortcutTarget, error) {
	f, err := b.drive.Files.Get(id).
		Context(ctx).
		SupportsAllDrives(true).
		Fields("id, mimeType, shortcutDetails").
		Do()
	if err != nil {
		return domain.ShortcutTarget{}, classify("get shortcut", err)
	}
	if f.MimeType != domain.MimeShortcut {
		return domain.ShortcutTarget{TargetID: f.Id, TargetMimeType: f.MimeType}, nil
	}
	if f.ShortcutDetails == nil || f.ShortcutDetails.TargetId == "" {
		return domain.ShortcutTarget{}, fmt.Errorf("shortcut %s has no target: %w", id, tools.ErrNotAccessible)
	}
	return domain.ShortcutTarget{
		TargetID:       f.ShortcutDetails.TargetId,
		TargetMimeType: f.ShortcutDetails.TargetMimeType,
	}, nil
}

func (b *Backend) FetchTabular(ctx context.Context, id string) ([][]string, error) {
	vr, err := b.sheets.Spreadsheets.Values.Get(id, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, classify("read sheet", err)
	}
	rows := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = fmt.Sprint(c)
		}
		rows[i] = cells
	}
	return rows, nil
}

func (b *Backend) FetchDocumentText(ctx context.Context, id, mimeType string) (string, error) {
	switch mimeType {
	case domain.MimeDocument:
		doc, err := b.docs.Documents.Get(id).Context(ctx).Do()
		if err != nil {
			return "", classify("read doc", err)
		}
		return DocumentText(doc), nil
	case domain.MimePDF:
		return b.pdfText(ctx, id)
	}
	return "", fmt.Errorf("unsupported document type %s: %w", mimeType, tools.ErrNotAccessible)
}

func (b *Backend) pdfText(ctx context.Context, id string) (string, error) {
	resp, err := b.drive.Files.Get(id).Context(ctx).SupportsAllDrives(true).Download()
	if err != nil {
		return "", classify("download pdf", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes+1))
	if err != nil {
		return "", fmt.Errorf("download pdf: %w", err)
	}
	if len(data) > maxPDFBytes {
		return "", fmt.Errorf("pdf larger than %d MB: %w", maxPDFBytes>>20, tools.ErrNotAccessible)
	}
	return PDFText(data)
}

// PDFText extracts plain text from a PDF file.
func PDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %v: %w", err, tools.ErrNotAccessible)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %v: %w", err, tools.ErrNotAccessible)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// DocumentText flattens a Doc body, including table cells, to text.
func DocumentText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	writeElements(&b, doc.Body.Content)
	return strings.TrimSpace(b.String())
}

func writeElements(b *strings.Builder, content []*docs.StructuralElement) {
	for _, el := range content {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for i, cell := range row.TableCells {
					if i > 0 {
						b.WriteString("\t")
					}
					var cb strings.Builder
					writeElements(&cb, cell.Content)
					b.WriteString(strings.TrimSpace(cb.String()))
				}
				b.WriteString("\n")
			}
		}
	}
}

// classify marks permission and not-found answers as not accessible so the
// engine can tell the user; everything else stays a hard failure.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%s: %v: %w", op, gerr.Message, tools.ErrNotAccessible)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ tools.FileBackend = (*Backend)(nil)
