package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/session"
)

// SessionStore implements session.Store backed by SQLite. It survives
// restarts, unlike session.MemoryStore.
type SessionStore struct {
	db  *DB
	cap int
}

// NewSessionStore creates a store keeping at most capacity turns per user.
func NewSessionStore(db *DB, capacity int) *SessionStore {
	if capacity <= 0 {
		capacity = session.DefaultMemoryCap
	}
	return &SessionStore{db: db, cap: capacity}
}

func (s *SessionStore) Append(ctx context.Context, userID string, turn domain.Turn) error {
	if !turn.Role.Valid() {
		return fmt.Errorf("append turn: invalid role %q", turn.Role)
	}
	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (user_id, role, content, tool_call_id) VALUES (?, ?, ?, ?)`,
			userID, string(turn.Role), turn.Content, turn.ToolCallID,
		); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM turns WHERE user_id = ? AND id NOT IN (
				SELECT id FROM turns WHERE user_id = ? ORDER BY id DESC LIMIT ?
			)`, userID, userID, s.cap,
		); err != nil {
			return fmt.Errorf("trim turns: %w", err)
		}
		return nil
	})
}

func (s *SessionStore) Read(ctx context.Context, userID string) ([]domain.Turn, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT role, content, tool_call_id FROM turns WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var t domain.Turn
		var role string
		if err := rows.Scan(&role, &t.Content, &t.ToolCallID); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = domain.Role(role)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.sql.ExecContext(ctx, `DELETE FROM turns WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}
	return nil
}

func (s *SessionStore) SetLastSearch(ctx context.Context, userID string, descriptors []domain.ResourceDescriptor) error {
	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM file_refs WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear file refs: %w", err)
		}
		for _, d := range descriptors {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO file_refs (user_id, idx, resource_id, name, mime_type) VALUES (?, ?, ?, ?, ?)`,
				userID, d.Index, d.ID, d.Name, d.MimeType,
			); err != nil {
				return fmt.Errorf("insert file ref %d: %w", d.Index, err)
			}
		}
		return nil
	})
}

func (s *SessionStore) Resolve(ctx context.Context, userID string, index int) (domain.ResourceDescriptor, error) {
	d := domain.ResourceDescriptor{Index: index}
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT resource_id, name, mime_type FROM file_refs WHERE user_id = ? AND idx = ?`, userID, index,
	).Scan(&d.ID, &d.Name, &d.MimeType)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ResourceDescriptor{}, fmt.Errorf("file #%d: %w", index, session.ErrReferenceNotFound)
	}
	if err != nil {
		return domain.ResourceDescriptor{}, fmt.Errorf("resolve file #%d: %w", index, err)
	}
	return d, nil
}

func (s *SessionStore) LastSearch(ctx context.Context, userID string) ([]domain.ResourceDescriptor, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT idx, resource_id, name, mime_type FROM file_refs WHERE user_id = ? ORDER BY idx`, userID)
	if err != nil {
		return nil, fmt.Errorf("read file refs: %w", err)
	}
	defer rows.Close()

	var out []domain.ResourceDescriptor
	for rows.Next() {
		var d domain.ResourceDescriptor
		if err := rows.Scan(&d.Index, &d.ID, &d.Name, &d.MimeType); err != nil {
			return nil, fmt.Errorf("scan file ref: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SessionStore) SetLastBoards(ctx context.Context, userID string, boards []domain.Board) error {
	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM board_refs WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear board refs: %w", err)
		}
		for i, b := range boards {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO board_refs (user_id, board_id, name, position) VALUES (?, ?, ?, ?)`,
				userID, b.ID, b.Name, i,
			); err != nil {
				return fmt.Errorf("insert board ref %s: %w", b.ID, err)
			}
		}
		return nil
	})
}

func (s *SessionStore) ResolveBoard(ctx context.Context, userID string, boardID string) (domain.Board, error) {
	b := domain.Board{ID: boardID}
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT name FROM board_refs WHERE user_id = ? AND board_id = ?`, userID, boardID,
	).Scan(&b.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Board{}, fmt.Errorf("board %q: %w", boardID, session.ErrReferenceNotFound)
	}
	if err != nil {
		return domain.Board{}, fmt.Errorf("resolve board %q: %w", boardID, err)
	}
	return b, nil
}

func (s *SessionStore) Reset(ctx context.Context, userID string) error {
	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"turns", "file_refs", "board_refs"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		return nil
	})
}

var _ session.Store = (*SessionStore)(nil)
