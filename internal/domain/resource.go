package domain

import "strings"

// Google Workspace mime types the tools care about.
const (
	MimeSpreadsheet = "application/vnd.google-apps.spreadsheet"
	MimeDocument    = "application/vnd.google-apps.document"
	MimeShortcut    = "application/vnd.google-apps.shortcut"
	MimeFolder      = "application/vnd.google-apps.folder"
	MimePDF         = "application/pdf"
)

// ResourceKind is the coarse classification used by read tools.
type ResourceKind string

const (
	KindTabular  ResourceKind = "tabular"
	KindDocument ResourceKind = "document"
	KindShortcut ResourceKind = "shortcut"
	KindOther    ResourceKind = "other"
)

// KindOf classifies a mime type.
func KindOf(mimeType string) ResourceKind {
	switch mimeType {
	case MimeSpreadsheet:
		return KindTabular
	case MimeDocument, MimePDF:
		return KindDocument
	case MimeShortcut:
		return KindShortcut
	default:
		return KindOther
	}
}

// DescribeMime returns a short human label for a mime type, for use in
// messages the engine relays to the user.
func DescribeMime(mimeType string) string {
	switch mimeType {
	case MimeSpreadsheet:
		return "Google Sheet"
	case MimeDocument:
		return "Google Doc"
	case MimePDF:
		return "PDF"
	case MimeShortcut:
		return "shortcut"
	case MimeFolder:
		return "folder"
	}
	if after, ok := strings.CutPrefix(mimeType, "application/vnd.google-apps."); ok {
		return "Google " + after
	}
	if mimeType == "" {
		return "unknown type"
	}
	return mimeType
}

// Resource is what a search backend returns for one hit.
type Resource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// ResourceDescriptor is a search hit numbered for the user. Index is
// 1-based in result order. IDs only ever come from a search backend.
type ResourceDescriptor struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// Kind classifies the descriptor by its mime type.
func (d ResourceDescriptor) Kind() ResourceKind { return KindOf(d.MimeType) }

// NumberResources assigns 1-based indices in order.
func NumberResources(rs []Resource) []ResourceDescriptor {
	out := make([]ResourceDescriptor, len(rs))
	for i, r := range rs {
		out[i] = ResourceDescriptor{Index: i + 1, ID: r.ID, Name: r.Name, MimeType: r.MimeType}
	}
	return out
}

// ShortcutTarget is where a shortcut points.
type ShortcutTarget struct {
	TargetID       string `json:"targetId"`
	TargetMimeType string `json:"targetMimeType"`
}

// Board is a monday.com board candidate.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoardItem is one row of a board.
type BoardItem struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Columns map[string]string `json:"columns,omitempty"`
}
