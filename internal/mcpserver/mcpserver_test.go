package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/session"
	"github.com/soyeahso/drivedesk/internal/tools"
)

type stubDrive struct {
	found  []domain.Resource
	sheets map[string][][]string
}

func (s *stubDrive) SearchResources(_ context.Context, _ string) ([]domain.Resource, error) {
	return s.found, nil
}

func (s *stubDrive) ResolveShortcut(_ context.Context, id string) (domain.ShortcutTarget, error) {
	return domain.ShortcutTarget{}, tools.ErrNotAccessible
}

func (s *stubDrive) FetchTabular(_ context.Context, id string) ([][]string, error) {
	return s.sheets[id], nil
}

func (s *stubDrive) FetchDocumentText(_ context.Context, _, _ string) (string, error) {
	return "", tools.ErrNotAccessible
}

type failingDispatcher struct{}

func (failingDispatcher) Definitions() []tools.Definition { return tools.Definitions(false) }

func (failingDispatcher) Dispatch(context.Context, string, tools.Call) (tools.Result, error) {
	return tools.Result{}, errors.New("drive is down")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	drive := &stubDrive{
		found: []domain.Resource{
			{ID: "s1", Name: "Budget", MimeType: domain.MimeSpreadsheet},
		},
		sheets: map[string][][]string{"s1": {{"Date", "Spend"}, {"2026-01-01", "10"}}},
	}
	log := logging.New(nil, "silent")
	d := tools.NewDispatcher(session.NewMemoryStore(10, nil), drive, nil, tools.Options{}, log)
	return New(d, "mcp-user", log)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func TestToolsUseGenericNames(t *testing.T) {
	s := newTestServer(t)

	var names []string
	for _, st := range s.serverTools() {
		names = append(names, st.Tool.Name)
	}
	assert.ElementsMatch(t, []string{"search", "read_tabular", "read_document", "summarize_spend"}, names)
}

func TestToolSchemaMarksParamsRequired(t *testing.T) {
	def := tools.Definitions(false)[1]
	tool := toolFor("read_tabular", def)

	assert.Equal(t, "read_tabular", tool.Name)
	assert.Equal(t, []string{"index"}, tool.InputSchema.Required)
	prop, ok := tool.InputSchema.Properties["index"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "number", prop["type"])
}

func TestSearchThenReadTabular(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handle(tools.SearchDrive)(ctx, callRequest("search", map[string]any{"query": "budget"}))
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))

	var search tools.SearchPayload
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &search))
	require.Len(t, search.Files, 1)
	assert.Equal(t, 1, search.Files[0].Index)

	res, err = s.handle(tools.ReadSheet)(ctx, callRequest("read_tabular", map[string]any{"index": float64(1)}))
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))

	var sheet tools.SheetPayload
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &sheet))
	assert.Equal(t, "Budget", sheet.Name)
	assert.Len(t, sheet.Rows, 2)
}

func TestReadWithoutSearchIsToolError(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handle(tools.ReadSheet)(context.Background(), callRequest("read_tabular", map[string]any{"index": float64(3)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), string(tools.KindReferenceNotFound))
}

func TestInvalidArgumentsAreToolErrors(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handle(tools.ReadSheet)(context.Background(), callRequest("read_tabular", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), string(tools.KindValidation))
}

func TestFatalDispatchErrorIsReported(t *testing.T) {
	s := New(failingDispatcher{}, "u", logging.New(nil, "silent"))

	res, err := s.handle(tools.SearchDrive)(context.Background(), callRequest("search", map[string]any{"query": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), "drive is down")
}
