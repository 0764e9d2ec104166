package adapter

import (
	"context"
	"fmt"

	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/registry"
	"github.com/sage-x-project/authnet/internal/wire"
)

// Authenticated is the virtual adapter the provider presents to the
// document-sync repository for one wrapped base adapter. It never decides
// routing itself; the provider calls its Emit* methods once it has already
// classified and handled a frame. Its only independent behavior is
// deduplicating peer-candidate.
type Authenticated struct {
	base   BaseAdapter
	events AuthenticatedAdapterEvents
	router Router
	seen   *registry.PeerTracker
}

// New wraps base, presenting events as the repository-facing sink. events
// may be nil; Events can be set later with SetEvents, which is convenient
// when the repository is constructed after the adapter.
func New(base BaseAdapter, events AuthenticatedAdapterEvents) *Authenticated {
	if events == nil {
		events = NoopAuthenticatedAdapterEvents{}
	}
	return &Authenticated{base: base, events: events, seen: registry.NewPeerTracker()}
}

// SetEvents replaces the repository-facing events sink.
func (a *Authenticated) SetEvents(events AuthenticatedAdapterEvents) {
	if events == nil {
		events = NoopAuthenticatedAdapterEvents{}
	}
	a.events = events
}

// SetRouter installs the outbound message router; the provider calls this
// once per wrap, before handing the adapter to the repository.
func (a *Authenticated) SetRouter(router Router) {
	a.router = router
}

// Send hands a plaintext repository message to the provider's router, which
// picks a share, encrypts the message, and transmits it via SendFrame. A
// routing failure (no connected share for the target, encryption failure,
// ...) is reported on this adapter's own error event rather than only
// returned, since the provider has no way to know which wrap's Send the
// repository called.
func (a *Authenticated) Send(ctx context.Context, msg *wire.RepositoryMessage) error {
	if a.router == nil {
		err := fmt.Errorf("adapter: no router installed")
		a.events.OnError(ctx, model.PeerID(msg.TargetID), err)
		return err
	}
	if err := a.router.RouteOutbound(ctx, msg); err != nil {
		a.events.OnError(ctx, model.PeerID(msg.TargetID), err)
		return err
	}
	return nil
}

// SendFrame hands a provider-constructed frame (auth or encrypted) to the
// underlying base adapter.
func (a *Authenticated) SendFrame(ctx context.Context, frame *wire.Frame) error {
	if err := a.base.Send(ctx, frame); err != nil {
		return fmt.Errorf("adapter: send frame: %w", err)
	}
	return nil
}

func (a *Authenticated) EmitReady(ctx context.Context) { a.events.OnReady(ctx) }
func (a *Authenticated) EmitClose(ctx context.Context) { a.events.OnClose(ctx) }

func (a *Authenticated) EmitPeerDisconnected(ctx context.Context, peerID model.PeerID) {
	a.seen.Forget(peerID)
	a.events.OnPeerDisconnected(ctx, peerID)
}

func (a *Authenticated) EmitError(ctx context.Context, peerID model.PeerID, err error) {
	a.events.OnError(ctx, peerID, err)
}

func (a *Authenticated) EmitMessage(ctx context.Context, senderID model.PeerID, msg *wire.RepositoryMessage) {
	a.events.OnMessage(ctx, senderID, msg)
}

// EmitPeerCandidate emits peer-candidate for peerID only the first time it
// is called for this adapter since construction or the last
// EmitPeerDisconnected; later calls for the same peer (e.g. a second share
// reaching connected) are silently dropped.
func (a *Authenticated) EmitPeerCandidate(ctx context.Context, peerID model.PeerID) {
	if !a.seen.Observe(peerID) {
		return
	}
	a.events.OnPeerCandidate(ctx, peerID)
}
