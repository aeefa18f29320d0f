package session

import "github.com/soyeahso/drivedesk/internal/domain"

// turnRing is a fixed-capacity FIFO of turns. Pushing onto a full ring
// overwrites the oldest entry.
type turnRing struct {
	buf   []domain.Turn
	head  int // index of the oldest turn
	count int
}

func newTurnRing(capacity int) *turnRing {
	return &turnRing{buf: make([]domain.Turn, capacity)}
}

func (r *turnRing) push(t domain.Turn) {
	if len(r.buf) == 0 {
		return
	}
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = t
		r.count++
		return
	}
	r.buf[r.head] = t
	r.head = (r.head + 1) % len(r.buf)
}

func (r *turnRing) snapshot() []domain.Turn {
	out := make([]domain.Turn, r.count)
	for i := range r.count {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *turnRing) reset() {
	clear(r.buf)
	r.head, r.count = 0, 0
}
