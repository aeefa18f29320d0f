package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/drivedesk/internal/domain"
)

// ErrNotAccessible is wrapped by backends when a resource exists in the
// user's results but cannot be read (deleted, not shared, wrong format).
// The dispatcher turns it into a non-fatal failure.
var ErrNotAccessible = errors.New("resource not accessible")

// FileBackend is the read-only document store.
type FileBackend interface {
	SearchResources(ctx context.Context, query string) ([]domain.Resource, error)
	ResolveShortcut(ctx context.Context, id string) (domain.ShortcutTarget, error)
	FetchTabular(ctx context.Context, id string) ([][]string, error)
	FetchDocumentText(ctx context.Context, id, mimeType string) (string, error)
}

// BoardBackend is the read-only project board store.
type BoardBackend interface {
	SearchBoards(ctx context.Context, name string) ([]domain.Board, error)
	FetchBoardItems(ctx context.Context, boardID string) ([]domain.BoardItem, error)
}

// BackendError is a fatal failure of an external call made on behalf of a
// tool. It ends the current loop run.
type BackendError struct {
	Tool Name
	Op   string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Tool, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
