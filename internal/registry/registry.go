// Package registry tracks the shares and invitations one auth provider
// currently knows about, and which peers have announced candidacy on which
// base adapter. It holds no cryptographic state; that lives in
// internal/psession and internal/teamcrypto.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sage-x-project/authnet/internal/model"
)

// ShareRegistry enforces the invariant that a ShareID lives in exactly one
// of shares or invitations, never both.
type ShareRegistry struct {
	mu          sync.RWMutex
	shares      map[model.ShareID]*model.Share
	invitations map[model.ShareID]model.Invitation
}

// New creates an empty registry.
func New() *ShareRegistry {
	return &ShareRegistry{
		shares:      make(map[model.ShareID]*model.Share),
		invitations: make(map[model.ShareID]model.Invitation),
	}
}

// AddShare admits share as a full member share. It is an error to add a
// share whose ID currently has a pending invitation; RedeemInvitation must
// be used to transition from invitation to share.
func (r *ShareRegistry) AddShare(share *model.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invitations[share.ID]; ok {
		return fmt.Errorf("registry: %s has a pending invitation, cannot add as share", share.ID)
	}
	r.shares[share.ID] = share
	return nil
}

// AddInvitation records a pending invitation. It is an error to add an
// invitation for a share the registry already holds as a full share.
func (r *ShareRegistry) AddInvitation(inv model.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := inv.ShareID()
	if _, ok := r.shares[id]; ok {
		return fmt.Errorf("registry: %s is already a share, cannot add invitation", id)
	}
	r.invitations[id] = inv
	return nil
}

// RedeemInvitation atomically moves shareID from invitations to shares once
// a handshake admits the local device to the team.
func (r *ShareRegistry) RedeemInvitation(shareID model.ShareID, share *model.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invitations[shareID]; !ok {
		return fmt.Errorf("registry: no pending invitation for %s", shareID)
	}
	delete(r.invitations, shareID)
	r.shares[shareID] = share
	return nil
}

// Share returns the share for shareID, if it is a full member share.
func (r *ShareRegistry) Share(shareID model.ShareID) (*model.Share, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shares[shareID]
	return s, ok
}

// Invitation returns the pending invitation for shareID, if any.
func (r *ShareRegistry) Invitation(shareID model.ShareID) (model.Invitation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invitations[shareID]
	return inv, ok
}

// Invitations returns every pending invitation currently held, ordered by
// share ID for deterministic iteration.
func (r *ShareRegistry) Invitations() []model.Invitation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Invitation, 0, len(r.invitations))
	for _, inv := range r.invitations {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShareID() < out[j].ShareID() })
	return out
}

// Shares returns every full share currently held, ordered by ID for
// deterministic iteration (used by persistence).
func (r *ShareRegistry) Shares() []*model.Share {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Share, 0, len(r.shares))
	for _, s := range r.shares {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ShareForDocument returns every share currently tracking documentID.
func (r *ShareRegistry) ShareForDocument(documentID string) []*model.Share {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Share
	for _, s := range r.shares {
		if s.HasDocument(documentID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
