package provider

import (
	"context"
	"fmt"

	"github.com/sage-x-project/authnet/internal/model"
)

// AddTeam admits team as a Share with an empty document set and opens
// sessions toward every currently-known peer on every wrapped adapter,
// It triggers a state save.
func (p *Provider) AddTeam(ctx context.Context, team model.Team) error {
	var outErr error
	p.exec(func() { outErr = p.addTeamLocked(ctx, team) })
	return outErr
}

// addTeamLocked is the exec-free body of AddTeam, reused by LoadPersisted
// which is already running on the command loop when it calls this.
func (p *Provider) addTeamLocked(ctx context.Context, team model.Team) error {
	share := model.NewShare(team)
	if err := p.registry.AddShare(share); err != nil {
		return fmt.Errorf("provider: add team: %w", err)
	}
	p.openSessionsForShare(ctx, share.ID)
	p.save(ctx)
	return nil
}

// AddInvitation records a pending invitation and opens sessions toward every
// known peer so a joining handshake can begin. It does not save: there is
// no team material yet.
func (p *Provider) AddInvitation(ctx context.Context, inv model.Invitation) error {
	var outErr error
	p.exec(func() {
		if err := p.registry.AddInvitation(inv); err != nil {
			outErr = fmt.Errorf("provider: add invitation: %w", err)
			return
		}
		p.openSessionsForShare(ctx, inv.ShareID())
	})
	return outErr
}

// AddDocuments mutates shareID's tracked document set. It never produces
// network traffic.
func (p *Provider) AddDocuments(ctx context.Context, shareID model.ShareID, documentIDs []string) error {
	var outErr error
	p.exec(func() {
		share, ok := p.registry.Share(shareID)
		if !ok {
			outErr = fmt.Errorf("provider: %s is not an admitted share", shareID)
			return
		}
		for _, id := range documentIDs {
			share.AddDocument(id)
		}
	})
	return outErr
}

// RemoveDocuments is the inverse of AddDocuments.
func (p *Provider) RemoveDocuments(ctx context.Context, shareID model.ShareID, documentIDs []string) error {
	var outErr error
	p.exec(func() {
		share, ok := p.registry.Share(shareID)
		if !ok {
			outErr = fmt.Errorf("provider: %s is not an admitted share", shareID)
			return
		}
		for _, id := range documentIDs {
			share.RemoveDocument(id)
		}
	})
	return outErr
}
