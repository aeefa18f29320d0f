package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// fakeDrive is an in-memory FileBackend that records every id it is asked
// to read.
type fakeDrive struct {
	mu        sync.Mutex
	search    map[string][]domain.Resource
	shortcuts map[string]domain.ShortcutTarget
	sheets    map[string][][]string
	docs      map[string]string
	fail      error
	reads     []string
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		search:    map[string][]domain.Resource{},
		shortcuts: map[string]domain.ShortcutTarget{},
		sheets:    map[string][][]string{},
		docs:      map[string]string{},
	}
}

func (f *fakeDrive) SearchResources(_ context.Context, query string) ([]domain.Resource, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.search[query], nil
}

func (f *fakeDrive) ResolveShortcut(_ context.Context, id string) (domain.ShortcutTarget, error) {
	f.mu.Lock()
	f.reads = append(f.reads, "shortcut:"+id)
	f.mu.Unlock()
	t, ok := f.shortcuts[id]
	if !ok {
		return t, fmt.Errorf("shortcut %s: %w", id, ErrNotAccessible)
	}
	return t, nil
}

func (f *fakeDrive) FetchTabular(_ context.Context, id string) ([][]string, error) {
	f.mu.Lock()
	f.reads = append(f.reads, "sheet:"+id)
	f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	rows, ok := f.sheets[id]
	if !ok {
		return nil, fmt.Errorf("sheet %s: %w", id, ErrNotAccessible)
	}
	return rows, nil
}

func (f *fakeDrive) FetchDocumentText(_ context.Context, id, mimeType string) (string, error) {
	f.mu.Lock()
	f.reads = append(f.reads, "doc:"+id+":"+mimeType)
	f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	return f.docs[id], nil
}

func (f *fakeDrive) readLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reads...)
}

type fakeBoards struct {
	boards []domain.Board
	items  map[string][]domain.BoardItem
	asked  []string
}

func (f *fakeBoards) SearchBoards(_ context.Context, name string) ([]domain.Board, error) {
	return f.boards, nil
}

func (f *fakeBoards) FetchBoardItems(_ context.Context, boardID string) ([]domain.BoardItem, error) {
	f.asked = append(f.asked, boardID)
	return f.items[boardID], nil
}
