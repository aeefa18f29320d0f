package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/drivedesk/internal/domain"
)

type userState struct {
	turns    *turnRing
	files    []domain.ResourceDescriptor
	boards   []domain.Board
	lastSeen time.Time
}

// MemoryStore is the process-lifetime Store. A single RWMutex guards the
// user map; per-user ordering is the caller's job (see agent.Runner).
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userState
	cap   int
	now   func() time.Time
}

// NewMemoryStore returns an empty store keeping at most capacity turns per
// user. A non-positive capacity means DefaultMemoryCap; a nil clock means
// time.Now.
func NewMemoryStore(capacity int, now func() time.Time) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCap
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{users: make(map[string]*userState), cap: capacity, now: now}
}

// Cap returns the per-user turn limit.
func (s *MemoryStore) Cap() int { return s.cap }

// user returns the state for id, creating it lazily. Caller holds s.mu.
func (s *MemoryStore) user(id string) *userState {
	u, ok := s.users[id]
	if !ok {
		u = &userState{turns: newTurnRing(s.cap)}
		s.users[id] = u
	}
	u.lastSeen = s.now()
	return u
}

func (s *MemoryStore) Append(_ context.Context, userID string, turn domain.Turn) error {
	if !turn.Role.Valid() {
		return fmt.Errorf("append turn: invalid role %q", turn.Role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).turns.push(turn)
	return nil
}

func (s *MemoryStore) Read(_ context.Context, userID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return []domain.Turn{}, nil
	}
	return u.turns.snapshot(), nil
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.turns.reset()
	}
	return nil
}

func (s *MemoryStore) SetLastSearch(_ context.Context, userID string, descriptors []domain.ResourceDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).files = append([]domain.ResourceDescriptor(nil), descriptors...)
	return nil
}

func (s *MemoryStore) Resolve(_ context.Context, userID string, index int) (domain.ResourceDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		for _, d := range u.files {
			if d.Index == index {
				return d, nil
			}
		}
	}
	return domain.ResourceDescriptor{}, fmt.Errorf("file #%d: %w", index, ErrReferenceNotFound)
}

func (s *MemoryStore) LastSearch(_ context.Context, userID string) ([]domain.ResourceDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return append([]domain.ResourceDescriptor(nil), u.files...), nil
}

func (s *MemoryStore) SetLastBoards(_ context.Context, userID string, boards []domain.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).boards = append([]domain.Board(nil), boards...)
	return nil
}

func (s *MemoryStore) ResolveBoard(_ context.Context, userID string, boardID string) (domain.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		for _, b := range u.boards {
			if b.ID == boardID {
				return b, nil
			}
		}
	}
	return domain.Board{}, fmt.Errorf("board %q: %w", boardID, ErrReferenceNotFound)
}

func (s *MemoryStore) Reset(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

// Prune forgets every user not seen since before cutoff and returns how many
// were dropped.
func (s *MemoryStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, u := range s.users {
		if u.lastSeen.Before(cutoff) {
			delete(s.users, id)
			n++
		}
	}
	return n
}

// Users returns the number of users with state.
func (s *MemoryStore) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

var _ Store = (*MemoryStore)(nil)
