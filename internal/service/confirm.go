package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultConfirmWindow is how long an armed deletion stays confirmable.
const DefaultConfirmWindow = 15 * time.Second

// DeleteConfirmer implements two-step log deletion: the first request arms a
// confirmation, the second request inside the window confirms it. When the
// window expires the armed state resets and a single request arms again.
type DeleteConfirmer struct {
	pending *expirable.LRU[string, time.Time]
}

// NewDeleteConfirmer creates a confirmer with the given window. A window of
// zero falls back to DefaultConfirmWindow.
func NewDeleteConfirmer(window time.Duration) *DeleteConfirmer {
	if window <= 0 {
		window = DefaultConfirmWindow
	}
	return &DeleteConfirmer{
		pending: expirable.NewLRU[string, time.Time](256, nil, window),
	}
}

// Confirm records a deletion request for id. It returns true when the
// request confirms a previously armed deletion, false when it only arms one.
func (d *DeleteConfirmer) Confirm(id string) bool {
	if _, armed := d.pending.Get(id); armed {
		d.pending.Remove(id)
		return true
	}
	d.pending.Add(id, time.Now())
	return false
}

// Armed reports whether a deletion of id is currently awaiting confirmation.
func (d *DeleteConfirmer) Armed(id string) bool {
	_, armed := d.pending.Get(id)
	return armed
}
