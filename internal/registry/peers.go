package registry

import (
	"sort"
	"sync"

	"github.com/sage-x-project/authnet/internal/model"
)

// PeerTracker deduplicates peer-candidate announcements per base adapter.
// A base adapter may re-announce the same peer id across reconnects; the
// provider must only treat the first sighting as a new-candidate event.
type PeerTracker struct {
	mu    sync.Mutex
	known map[model.PeerID]struct{}
}

// NewPeerTracker creates an empty tracker.
func NewPeerTracker() *PeerTracker {
	return &PeerTracker{known: make(map[model.PeerID]struct{})}
}

// Observe records peerID as seen and reports whether this is the first time.
func (t *PeerTracker) Observe(peerID model.PeerID) (isNew bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.known[peerID]; ok {
		return false
	}
	t.known[peerID] = struct{}{}
	return true
}

// Forget removes peerID so a future announcement is treated as new again;
// used when the base adapter reports the peer as disconnected.
func (t *PeerTracker) Forget(peerID model.PeerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.known, peerID)
}

// Known lists every currently tracked peer, sorted for deterministic tests.
func (t *PeerTracker) Known() []model.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.PeerID, 0, len(t.known))
	for p := range t.known {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
