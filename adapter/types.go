// Package adapter defines the virtual, authenticated network adapter this
// layer presents to the document-sync repository, and the base adapter
// contract the repository's unwrapped transport must satisfy.
package adapter

import (
	"context"

	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/wire"
)

// BaseAdapter is the unwrapped transport this layer sits on top of.
// Transport reliability and reconnection are its concern, not this
// package's.
type BaseAdapter interface {
	// Send transmits frame toward the peer addressed by frame.TargetID.
	Send(ctx context.Context, frame *wire.Frame) error
	// Subscribe installs the events sink that receives this adapter's
	// lifecycle and inbound-message callbacks. Only one sink is active at a
	// time; wrapping a base adapter a second time replaces the first.
	Subscribe(events BaseAdapterEvents)
}

// BaseAdapterEvents is the callback surface a BaseAdapter drives. The
// provider implements this once per wrapped base adapter.
type BaseAdapterEvents interface {
	OnReady(ctx context.Context)
	OnClose(ctx context.Context)
	OnPeerCandidate(ctx context.Context, peerID model.PeerID)
	OnPeerDisconnected(ctx context.Context, peerID model.PeerID)
	OnMessage(ctx context.Context, frame *wire.Frame)
	OnError(ctx context.Context, err error)
}

// NoopBaseAdapterEvents is a default no-op implementation.
type NoopBaseAdapterEvents struct{}

func (NoopBaseAdapterEvents) OnReady(context.Context)                             {}
func (NoopBaseAdapterEvents) OnClose(context.Context)                             {}
func (NoopBaseAdapterEvents) OnPeerCandidate(context.Context, model.PeerID)        {}
func (NoopBaseAdapterEvents) OnPeerDisconnected(context.Context, model.PeerID)     {}
func (NoopBaseAdapterEvents) OnMessage(context.Context, *wire.Frame)               {}
func (NoopBaseAdapterEvents) OnError(context.Context, error)                       {}

// AuthenticatedAdapterEvents is the callback surface the document-sync
// repository subscribes to. It mirrors BaseAdapterEvents except OnMessage
// carries a decrypted RepositoryMessage instead of a raw Frame, and
// OnPeerCandidate only ever fires once a session has reached connected.
type AuthenticatedAdapterEvents interface {
	OnReady(ctx context.Context)
	OnClose(ctx context.Context)
	OnPeerCandidate(ctx context.Context, peerID model.PeerID)
	OnPeerDisconnected(ctx context.Context, peerID model.PeerID)
	OnMessage(ctx context.Context, senderID model.PeerID, msg *wire.RepositoryMessage)
	OnError(ctx context.Context, peerID model.PeerID, err error)
}

// Router resolves and transmits an outbound repository message on behalf of
// an Authenticated adapter. The provider implements it; this package only
// depends on the interface so adapter never imports internal/provider.
type Router interface {
	RouteOutbound(ctx context.Context, msg *wire.RepositoryMessage) error
}

// NoopAuthenticatedAdapterEvents is a default no-op implementation.
type NoopAuthenticatedAdapterEvents struct{}

func (NoopAuthenticatedAdapterEvents) OnReady(context.Context)                         {}
func (NoopAuthenticatedAdapterEvents) OnClose(context.Context)                         {}
func (NoopAuthenticatedAdapterEvents) OnPeerCandidate(context.Context, model.PeerID)    {}
func (NoopAuthenticatedAdapterEvents) OnPeerDisconnected(context.Context, model.PeerID) {}
func (NoopAuthenticatedAdapterEvents) OnMessage(context.Context, model.PeerID, *wire.RepositoryMessage) {
}
func (NoopAuthenticatedAdapterEvents) OnError(context.Context, model.PeerID, error) {}
