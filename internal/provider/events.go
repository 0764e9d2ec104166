package provider

import (
	"context"

	"github.com/sage-x-project/authnet/internal/model"
)

// Events is the provider's outward event surface ("Emitted events
// (outward)"). It is modelled as a subscribable callback interface rather
// than a channel of sum-typed events, matching the pattern used by
// adapter.BaseAdapterEvents and teamcrypto.ConnectionEvents throughout this
// module (either is a valid choice).
type Events interface {
	// OnJoined fires once, the moment a pending invitation is redeemed: the
	// local device has been admitted to shareID as user's device.
	OnJoined(ctx context.Context, shareID model.ShareID, peerID model.PeerID, team model.Team, user model.UserIdentity)
	// OnConnected fires when a session's handshake has reached member and
	// the base adapter has confirmed the peer reachable.
	OnConnected(ctx context.Context, shareID model.ShareID, peerID model.PeerID)
	// OnUpdated fires when a team's graph changes after admission. The
	// reference handshake engine never calls this; it exists for a crypto
	// library that supports post-admission membership changes.
	OnUpdated(ctx context.Context, shareID model.ShareID, peerID model.PeerID)
	// OnDisconnected fires once a session is removed, for any reason.
	OnDisconnected(ctx context.Context, shareID model.ShareID, peerID model.PeerID)
	// OnLocalError reports a failure this side detected in the handshake.
	OnLocalError(ctx context.Context, shareID model.ShareID, peerID model.PeerID, err error)
	// OnRemoteError reports a failure the peer reported about the handshake.
	OnRemoteError(ctx context.Context, shareID model.ShareID, peerID model.PeerID, err error)
}

// NoopEvents is a default no-op implementation.
type NoopEvents struct{}

func (NoopEvents) OnJoined(context.Context, model.ShareID, model.PeerID, model.Team, model.UserIdentity) {
}
func (NoopEvents) OnConnected(context.Context, model.ShareID, model.PeerID)    {}
func (NoopEvents) OnUpdated(context.Context, model.ShareID, model.PeerID)      {}
func (NoopEvents) OnDisconnected(context.Context, model.ShareID, model.PeerID) {}
func (NoopEvents) OnLocalError(context.Context, model.ShareID, model.PeerID, error)  {}
func (NoopEvents) OnRemoteError(context.Context, model.ShareID, model.PeerID, error) {}

var _ Events = NoopEvents{}
