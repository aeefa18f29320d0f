package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userTurn(s string) domain.Turn { return domain.Turn{Role: domain.RoleUser, Content: s} }

func TestAppendThenReadShowsTurnLast(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(5, nil)

	require.NoError(t, s.Append(ctx, "U1", userTurn("hi")))
	require.NoError(t, s.Append(ctx, "U1", domain.Turn{Role: domain.RoleAssistant, Content: "hello"}))

	turns, err := s.Read(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[1].Content)
}

func TestMemoryNeverExceedsCap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, nil)

	for i := range 10 {
		require.NoError(t, s.Append(ctx, "U1", userTurn(fmt.Sprintf("m%d", i))))
		turns, err := s.Read(ctx, "U1")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(turns), 3)
		assert.Equal(t, fmt.Sprintf("m%d", i), turns[len(turns)-1].Content)
	}

	turns, _ := s.Read(ctx, "U1")
	assert.Equal(t, []string{"m7", "m8", "m9"}, contents(turns))
}

func TestDefaultCap(t *testing.T) {
	assert.Equal(t, DefaultMemoryCap, NewMemoryStore(0, nil).Cap())
}

func TestReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, nil)
	require.NoError(t, s.Append(ctx, "U1", userTurn("a")))

	turns, _ := s.Read(ctx, "U1")
	turns[0].Content = "mutated"

	again, _ := s.Read(ctx, "U1")
	assert.Equal(t, "a", again[0].Content)
}

func TestReadUnknownUserIsEmpty(t *testing.T) {
	turns, err := NewMemoryStore(3, nil).Read(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAppendRejectsBadRole(t *testing.T) {
	err := NewMemoryStore(3, nil).Append(context.Background(), "U1", domain.Turn{Role: "bot"})
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, nil)
	require.NoError(t, s.Append(ctx, "U1", userTurn("a")))
	require.NoError(t, s.Append(ctx, "U2", userTurn("b")))

	require.NoError(t, s.Clear(ctx, "U1"))

	t1, _ := s.Read(ctx, "U1")
	t2, _ := s.Read(ctx, "U2")
	assert.Empty(t, t1)
	assert.Len(t, t2, 1)

	require.NoError(t, s.Append(ctx, "U1", userTurn("c")))
	t1, _ = s.Read(ctx, "U1")
	assert.Equal(t, []string{"c"}, contents(t1))
}

func TestLastSearchWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, nil)

	alpha := domain.NumberResources([]domain.Resource{{ID: "a1", Name: "alpha one"}, {ID: "a2", Name: "alpha two"}})
	beta := domain.NumberResources([]domain.Resource{{ID: "b1", Name: "beta"}})

	require.NoError(t, s.SetLastSearch(ctx, "U1", alpha))
	d, err := s.Resolve(ctx, "U1", 2)
	require.NoError(t, err)
	assert.Equal(t, "a2", d.ID)

	require.NoError(t, s.SetLastSearch(ctx, "U1", beta))
	_, err = s.Resolve(ctx, "U1", 2)
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	d, err = s.Resolve(ctx, "U1", 1)
	require.NoError(t, err)
	assert.Equal(t, "b1", d.ID)

	last, _ := s.LastSearch(ctx, "U1")
	assert.Equal(t, beta, last)
}

func TestSearchSetsAreUserScoped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, nil)
	require.NoError(t, s.SetLastSearch(ctx, "U1", domain.NumberResources([]domain.Resource{{ID: "x"}})))

	_, err := s.Resolve(ctx, "U2", 1)
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestSetLastSearchCopiesInput(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, nil)
	in := domain.NumberResources([]domain.Resource{{ID: "x"}})
	require.NoError(t, s.SetLastSearch(ctx, "U1", in))
	in[0].ID = "forged"

	d, err := s.Resolve(ctx, "U1", 1)
	require.NoError(t, err)
	assert.Equal(t, "x", d.ID)
}

func TestBoards(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, nil)

	_, err := s.ResolveBoard(ctx, "U1", "123")
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	require.NoError(t, s.SetLastBoards(ctx, "U1", []domain.Board{{ID: "123", Name: "Marketing"}}))
	b, err := s.ResolveBoard(ctx, "U1", "123")
	require.NoError(t, err)
	assert.Equal(t, "Marketing", b.Name)

	require.NoError(t, s.SetLastBoards(ctx, "U1", []domain.Board{{ID: "9", Name: "Ops"}}))
	_, err = s.ResolveBoard(ctx, "U1", "123")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestResetAndPrune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(3, func() time.Time { return now })

	require.NoError(t, s.Append(ctx, "old", userTurn("a")))
	now = now.Add(2 * time.Hour)
	require.NoError(t, s.Append(ctx, "new", userTurn("b")))
	require.NoError(t, s.SetLastSearch(ctx, "gone", nil))
	assert.Equal(t, 3, s.Users())

	require.NoError(t, s.Reset(ctx, "gone"))
	assert.Equal(t, 2, s.Users())

	assert.Equal(t, 1, s.Prune(now.Add(-time.Hour)))
	assert.Equal(t, 1, s.Users())
	turns, _ := s.Read(ctx, "new")
	assert.Len(t, turns, 1)
}

func TestConcurrentUsersIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(4, nil)

	var wg sync.WaitGroup
	for u := range 8 {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			for i := range 20 {
				_ = s.Append(ctx, uid, userTurn(fmt.Sprint(i)))
			}
		}(fmt.Sprintf("U%d", u))
	}
	wg.Wait()

	for u := range 8 {
		turns, _ := s.Read(ctx, fmt.Sprintf("U%d", u))
		assert.Equal(t, []string{"16", "17", "18", "19"}, contents(turns))
	}
}

func contents(turns []domain.Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}
