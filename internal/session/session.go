// Package session holds per-user conversational state: the bounded turn log
// and the numbered results of the user's most recent search.
package session

import (
	"context"
	"errors"

	"github.com/soyeahso/drivedesk/internal/domain"
)

// DefaultMemoryCap is the number of turns kept per user.
const DefaultMemoryCap = 25

var (
	// ErrReferenceNotFound means the index or id is not part of the user's
	// most recent result set.
	ErrReferenceNotFound = errors.New("reference not found")
)

// Memory is a per-user bounded, ordered conversation log.
type Memory interface {
	// Append adds a turn at the end, evicting the oldest turn when full.
	Append(ctx context.Context, userID string, turn domain.Turn) error

	// Read returns a copy of the log, oldest first.
	Read(ctx context.Context, userID string) ([]domain.Turn, error)

	// Clear empties the log.
	Clear(ctx context.Context, userID string) error
}

// References maps transient, user-facing handles to resources found by the
// user's last search. Each Set call replaces the previous set entirely.
type References interface {
	SetLastSearch(ctx context.Context, userID string, descriptors []domain.ResourceDescriptor) error
	Resolve(ctx context.Context, userID string, index int) (domain.ResourceDescriptor, error)
	LastSearch(ctx context.Context, userID string) ([]domain.ResourceDescriptor, error)

	SetLastBoards(ctx context.Context, userID string, boards []domain.Board) error
	ResolveBoard(ctx context.Context, userID string, boardID string) (domain.Board, error)
}

// Store is everything a user session owns.
type Store interface {
	Memory
	References

	// Reset drops the turn log and both result sets for a user.
	Reset(ctx context.Context, userID string) error
}
