package tools

import "encoding/json"

// ParamType is a JSON Schema primitive type.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
}

// Definition describes a tool for the engine (and the MCP surface). All
// params are required.
type Definition struct {
	Name        Name
	Description string
	Params      []Param
}

// InputSchema renders the params as a JSON Schema object.
func (d Definition) InputSchema() string {
	props := make(map[string]any, len(d.Params))
	required := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		prop := map[string]any{"type": string(p.Type), "description": p.Description}
		if p.Type == TypeInteger {
			prop["minimum"] = 1
		}
		props[p.Name] = prop
		required = append(required, p.Name)
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
	data, _ := json.Marshal(schema)
	return string(data)
}

var indexParam = Param{
	Name:        "index",
	Type:        TypeInteger,
	Description: "1-based index of a file from the most recent search_drive result",
}

var fileDefinitions = []Definition{
	{
		Name:        SearchDrive,
		Description: "Search Google Drive by file name. Returns numbered files; later tools refer to them by index.",
		Params:      []Param{{Name: "query", Type: TypeString, Description: "Text contained in the file name"}},
	},
	{
		Name:        ReadSheet,
		Description: "Read cell values from a Google Sheet found by the last search.",
		Params:      []Param{indexParam},
	},
	{
		Name:        ReadDoc,
		Description: "Read the text of a Google Doc or PDF found by the last search.",
		Params:      []Param{indexParam},
	},
	{
		Name:        SummarizeSpend,
		Description: "Total the ad spend column of a Google Sheet for yesterday, the last 7 days, or last month.",
		Params: []Param{
			indexParam,
			{Name: "question", Type: TypeString, Description: "The user's question, including the time range"},
		},
	},
	{
		Name:        Respond,
		Description: "Send the final answer to the user.",
		Params:      []Param{{Name: "text", Type: TypeString, Description: "Answer text"}},
	},
}

var boardDefinitions = []Definition{
	{
		Name:        SearchBoards,
		Description: "Find monday.com boards by name. Returns candidate boards with their ids.",
		Params:      []Param{{Name: "boardName", Type: TypeString, Description: "Board name or part of it"}},
	},
	{
		Name:        GetBoardItems,
		Description: "List items of a monday.com board returned by the last search_boards call.",
		Params:      []Param{{Name: "boardId", Type: TypeString, Description: "Board id from search_boards"}},
	},
}

// Definitions returns the tools the engine may call. Board tools are
// included only when a board backend is configured.
func Definitions(withBoards bool) []Definition {
	defs := append([]Definition(nil), fileDefinitions...)
	if withBoards {
		defs = append(defs, boardDefinitions...)
	}
	return defs
}
