// Package tools validates and executes the read-only tools offered to the
// reasoning engine. Resource ids reach a backend only after being looked up
// in the user's last search results.
package tools

// Name is a canonical tool name as advertised to the engine.
type Name string

const (
	SearchDrive    Name = "search_drive"
	ReadSheet      Name = "read_sheet"
	ReadDoc        Name = "read_doc"
	Respond        Name = "respond"
	SummarizeSpend Name = "summarize_spend"
	SearchBoards   Name = "search_boards"
	GetBoardItems  Name = "get_board_items"
)

// Generic names accepted as synonyms.
var aliases = map[string]Name{
	"search":        SearchDrive,
	"read_tabular":  ReadSheet,
	"read_document": ReadDoc,
}

// Canonical maps a requested tool name to its canonical Name. ok is false
// for unknown tools.
func Canonical(name string) (Name, bool) {
	switch n := Name(name); n {
	case SearchDrive, ReadSheet, ReadDoc, Respond, SummarizeSpend, SearchBoards, GetBoardItems:
		return n, true
	}
	n, ok := aliases[name]
	return n, ok
}
