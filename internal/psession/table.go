package psession

import (
	"sync"

	"github.com/sage-x-project/authnet/internal/model"
)

// Table holds at most one Session per Key, guarded by a single mutex. The
// provider's command loop is already single-threaded, but the table is
// defensively safe for concurrent use since metrics and adapter callbacks
// may read it from other goroutines.
type Table struct {
	mu       sync.RWMutex
	sessions map[Key]*Session
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{sessions: make(map[Key]*Session)}
}

// Get returns the session for key, if one exists.
func (t *Table) Get(key Key) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[key]
	return s, ok
}

// Put installs session, replacing any prior session for the same key. The
// caller is responsible for closing a replaced session first if that
// matters to it; Put itself does not close anything.
func (t *Table) Put(session *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[session.Key()] = session
}

// Remove drops key from the table, closing its session if present.
func (t *Table) Remove(key Key) {
	t.mu.Lock()
	session, ok := t.sessions[key]
	if ok {
		delete(t.sessions, key)
	}
	t.mu.Unlock()
	if ok {
		_ = session.Close()
	}
}

// ByPeer returns every session currently tracked for peerID across shares.
func (t *Table) ByPeer(peerID model.PeerID) []*Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Session
	for key, s := range t.sessions {
		if key.PeerID == peerID {
			out = append(out, s)
		}
	}
	return out
}

// ByShare returns every session currently tracked for shareID across peers.
func (t *Table) ByShare(shareID model.ShareID) []*Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Session
	for key, s := range t.sessions {
		if key.ShareID == shareID {
			out = append(out, s)
		}
	}
	return out
}

// ConnectedPeers lists peers with at least one connected session on any
// share. The provider does not call it.
func (t *Table) ConnectedPeers() map[model.PeerID]struct{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[model.PeerID]struct{})
	for key, s := range t.sessions {
		if s.State() == StateConnected {
			out[key.PeerID] = struct{}{}
		}
	}
	return out
}
