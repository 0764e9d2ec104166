package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/sage-x-project/authnet/internal/buffer"
	"github.com/sage-x-project/authnet/internal/metrics"
	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/psession"
	"github.com/sage-x-project/authnet/internal/teamcrypto"
	"github.com/sage-x-project/authnet/internal/wire"
)

// sessionEvents bridges one (share, peer) teamcrypto.Connection back to the
// provider. The handshake engine calls these synchronously from inside
// HandleMessage/Open, which the provider only ever calls from its own
// command loop, so these methods must not re-enter exec.
type sessionEvents struct {
	p       *Provider
	shareID model.ShareID
	peerID  model.PeerID
}

func (e *sessionEvents) OnMessage(ctx context.Context, targetID string, payload []byte) error {
	w, ok := e.p.wrapFor(model.PeerID(targetID))
	if !ok {
		return fmt.Errorf("provider: no wrapped adapter for peer %s", targetID)
	}
	frame := wire.NewAuthFrame(e.p.device.ID, targetID, string(e.shareID), payload)
	return w.auth.SendFrame(ctx, frame)
}

func (e *sessionEvents) OnMember(ctx context.Context, team model.Team) error {
	e.p.onSessionMember(ctx, e.shareID, e.peerID, team)
	return nil
}

// OnUpdated re-saves the registry when the engine's view of an
// already-admitted team changes shape. The reference engine never calls
// this; a production Engine backed by a real team graph would, on every
// member-add or key-rotation event.
func (e *sessionEvents) OnUpdated(ctx context.Context, team model.Team) error {
	if share, ok := e.p.registry.Share(e.shareID); ok {
		share.Team = team
		e.p.save(ctx)
		e.p.events.OnUpdated(ctx, e.shareID, e.peerID)
	}
	return nil
}

func (e *sessionEvents) OnClosed(ctx context.Context, reason error) {
	e.p.onSessionClosed(ctx, e.shareID, e.peerID, reason)
}

var _ teamcrypto.ConnectionEvents = (*sessionEvents)(nil)

// handshakeContext builds the HandshakeContext the engine needs to open a
// connection toward shareID.
func (p *Provider) handshakeContext(shareID model.ShareID) (teamcrypto.HandshakeContext, error) {
	if share, ok := p.registry.Share(shareID); ok {
		return teamcrypto.MemberContext{Team: share.Team, Device: p.device}, nil
	}
	inv, ok := p.registry.Invitation(shareID)
	if !ok {
		return nil, fmt.Errorf("provider: %s is neither a share nor an invitation", shareID)
	}
	switch v := inv.(type) {
	case *model.DeviceInvitation:
		return teamcrypto.InviteeAsDeviceContext{
			Invitation: v,
			Device:     p.device,
			User:       model.UserIdentity{ID: v.UserID},
		}, nil
	case *model.MemberInvitation:
		return teamcrypto.InviteeAsMemberContext{
			Invitation: v,
			Device:     p.device,
			User:       p.resolveUser(),
		}, nil
	default:
		return nil, fmt.Errorf("provider: unknown invitation variant %T", inv)
	}
}

// resolveUser returns the current user identity, or a bare identity carrying
// only the device's owning user id if none has been set yet — the case of a
// brand-new user redeeming a MemberInvitation for the first time.
func (p *Provider) resolveUser() model.UserIdentity {
	if user, ok := p.userIdentity(); ok {
		return user
	}
	return model.UserIdentity{ID: p.device.UserID}
}

// allShareIDs is keys(shares) ∪ keys(invitations).
func (p *Provider) allShareIDs() []model.ShareID {
	seen := make(map[model.ShareID]struct{})
	var out []model.ShareID
	for _, s := range p.registry.Shares() {
		if _, ok := seen[s.ID]; !ok {
			seen[s.ID] = struct{}{}
			out = append(out, s.ID)
		}
	}
	for _, inv := range p.registry.Invitations() {
		if _, ok := seen[inv.ShareID()]; !ok {
			seen[inv.ShareID()] = struct{}{}
			out = append(out, inv.ShareID())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func toBufferKey(k psession.Key) buffer.Key {
	return buffer.Key{ShareID: string(k.ShareID), PeerID: string(k.PeerID)}
}

func (p *Provider) wrapFor(peerID model.PeerID) (*wrapBinding, bool) {
	p.peerMu.Lock()
	defer p.peerMu.Unlock()
	w, ok := p.peerWrap[peerID]
	return w, ok
}

// openSession creates a session for (shareID, peerID) if one does not
// already exist, drains any buffered handshake bytes into it in arrival
// order, and asks the engine to start the handshake. A failure here is
// benign: it is logged and reported as a local error on this pair only.
func (p *Provider) openSession(ctx context.Context, w *wrapBinding, shareID model.ShareID, peerID model.PeerID) {
	key := psession.Key{ShareID: shareID, PeerID: peerID}
	if _, ok := p.sessions.Get(key); ok {
		return
	}

	hctx, err := p.handshakeContext(shareID)
	if err != nil {
		p.log.Warnf("no handshake context for %s/%s: %v", shareID, peerID, err)
		return
	}

	events := &sessionEvents{p: p, shareID: shareID, peerID: peerID}
	conn, err := p.engine.Open(ctx, hctx, peerID, events)
	if err != nil {
		p.log.Warnf("engine.Open failed for %s/%s: %v", shareID, peerID, err)
		p.events.OnLocalError(ctx, shareID, peerID, err)
		return
	}

	sess := psession.New(key, conn)
	p.sessions.Put(sess)

	bufKey := toBufferKey(key)
	for _, payload := range p.pending.Drain(bufKey) {
		metrics.BufferedMessages.Dec()
		if err := sess.HandleMessage(ctx, payload); err != nil {
			p.log.Warnf("buffered handshake message rejected for %s/%s: %v", shareID, peerID, err)
			p.events.OnLocalError(ctx, shareID, peerID, err)
		}
	}
}

// openSessionsForPeer is the "peer appears" trigger: it opens every missing
// (shareId, peerId) session across all known share ids.
func (p *Provider) openSessionsForPeer(ctx context.Context, w *wrapBinding, peerID model.PeerID) {
	for _, shareID := range p.allShareIDs() {
		p.openSession(ctx, w, shareID, peerID)
	}
}

// openSessionsForShare is the "share/invitation admitted" trigger: it opens
// a session toward every currently known peer for shareID.
func (p *Provider) openSessionsForShare(ctx context.Context, shareID model.ShareID) {
	p.peerMu.Lock()
	peers := make(map[model.PeerID]*wrapBinding, len(p.peerWrap))
	for peerID, w := range p.peerWrap {
		peers[peerID] = w
	}
	p.peerMu.Unlock()

	for peerID, w := range peers {
		p.openSession(ctx, w, shareID, peerID)
	}
}

func (p *Provider) handlePeerCandidate(ctx context.Context, w *wrapBinding, peerID model.PeerID) {
	p.peerMu.Lock()
	p.peerWrap[peerID] = w
	p.peerMu.Unlock()
	p.openSessionsForPeer(ctx, w, peerID)
}

// handlePeerDisconnected removes every session for peerID before anything
// else runs, so a subsequent reconnect's peer-candidate never races a
// still-live session for the same pair.
func (p *Provider) handlePeerDisconnected(ctx context.Context, w *wrapBinding, peerID model.PeerID) {
	p.peerMu.Lock()
	delete(p.peerWrap, peerID)
	p.peerMu.Unlock()

	for _, shareID := range p.allShareIDs() {
		key := psession.Key{ShareID: shareID, PeerID: peerID}
		if _, ok := p.sessions.Get(key); ok {
			p.sessions.Remove(key)
			p.events.OnDisconnected(ctx, shareID, peerID)
		}
	}
	w.auth.EmitPeerDisconnected(ctx, peerID)
}

// onSessionMember advances a session to member, redeems a pending
// invitation if this was a joining handshake, and promotes the session to
// connected since openSession only ever runs for peers already known to be
// reachable on their wrapped adapter.
func (p *Provider) onSessionMember(ctx context.Context, shareID model.ShareID, peerID model.PeerID, team model.Team) {
	key := psession.Key{ShareID: shareID, PeerID: peerID}
	sess, ok := p.sessions.Get(key)
	if !ok {
		return
	}
	sess.MarkMember(team)

	if _, wasInvitation := p.registry.Invitation(shareID); wasInvitation {
		user := p.resolveUser()
		p.setUserIdentity(user)
		share := model.NewShare(team)
		if err := p.registry.RedeemInvitation(shareID, share); err != nil {
			p.log.Warnf("redeem invitation for %s: %v", shareID, err)
		} else {
			p.events.OnJoined(ctx, shareID, peerID, team, user)
			p.save(ctx)
			p.openSessionsForShare(ctx, shareID)
		}
	}

	if sess.MarkConnected() {
		if w, ok := p.wrapFor(peerID); ok {
			w.auth.EmitPeerCandidate(ctx, peerID)
		}
		p.events.OnConnected(ctx, shareID, peerID)
	}
}

func (p *Provider) onSessionClosed(ctx context.Context, shareID model.ShareID, peerID model.PeerID, reason error) {
	if reason != nil {
		p.events.OnLocalError(ctx, shareID, peerID, reason)
	}
	p.sessions.Remove(psession.Key{ShareID: shareID, PeerID: peerID})
	p.events.OnDisconnected(ctx, shareID, peerID)
}
