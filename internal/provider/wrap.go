package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/authnet/adapter"
	"github.com/sage-x-project/authnet/internal/metrics"
	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/psession"
	"github.com/sage-x-project/authnet/internal/wire"
)

// wrapBinding ties one wrapped base adapter to its Authenticated virtual
// adapter. It implements adapter.BaseAdapterEvents so the provider can tell
// which base adapter a callback came from.
type wrapBinding struct {
	p    *Provider
	auth *adapter.Authenticated
	base adapter.BaseAdapter
}

// Wrap creates and registers an authenticated adapter for base
// wrap(baseAdapter). Each call produces a distinct wrapper even for the
// same base adapter instance.
func (p *Provider) Wrap(base adapter.BaseAdapter) *adapter.Authenticated {
	binding := &wrapBinding{p: p, base: base}
	auth := adapter.New(base, adapter.NoopAuthenticatedAdapterEvents{})
	auth.SetRouter(p)
	binding.auth = auth

	p.wrapMu.Lock()
	p.wraps = append(p.wraps, binding)
	p.wrapMu.Unlock()

	base.Subscribe(binding)
	return auth
}

var _ adapter.BaseAdapterEvents = (*wrapBinding)(nil)

func (w *wrapBinding) OnReady(ctx context.Context) { w.auth.EmitReady(ctx) }
func (w *wrapBinding) OnClose(ctx context.Context) { w.auth.EmitClose(ctx) }

func (w *wrapBinding) OnPeerCandidate(ctx context.Context, peerID model.PeerID) {
	w.p.exec(func() { w.p.handlePeerCandidate(ctx, w, peerID) })
}

func (w *wrapBinding) OnPeerDisconnected(ctx context.Context, peerID model.PeerID) {
	w.p.exec(func() { w.p.handlePeerDisconnected(ctx, w, peerID) })
}

func (w *wrapBinding) OnMessage(ctx context.Context, frame *wire.Frame) {
	w.p.exec(func() { w.p.handleFrame(ctx, w, frame) })
}

func (w *wrapBinding) OnError(ctx context.Context, err error) {
	// Transport-level errors are forwarded verbatim and carry no
	// peer; "" marks an adapter-wide error.
	w.auth.EmitError(ctx, "", err)
}

// handleFrame classifies an inbound frame and routes it accordingly.
// Invalid frames are logged and dropped; they never reach a session.
func (p *Provider) handleFrame(ctx context.Context, w *wrapBinding, frame *wire.Frame) {
	kind, err := wire.Classify(frame)
	if err != nil {
		metrics.FramesClassified.WithLabelValues("invalid").Inc()
		p.log.Warnf("dropping invalid frame from %s: %v", frame.SenderID, err)
		return
	}
	switch kind {
	case wire.FrameAuth:
		metrics.FramesClassified.WithLabelValues("auth").Inc()
		p.handleAuthFrame(ctx, w, frame)
	case wire.FrameEncrypted:
		metrics.FramesClassified.WithLabelValues("encrypted").Inc()
		p.handleEncryptedFrame(ctx, w, frame)
	default:
		metrics.FramesClassified.WithLabelValues("pass_through").Inc()
		p.log.Debugf("pass-through frame type %q from %s ignored at this layer", frame.Type, frame.SenderID)
	}
}

func (p *Provider) handleAuthFrame(ctx context.Context, w *wrapBinding, frame *wire.Frame) {
	shareID := model.ShareID(frame.ShareID)
	peerID := model.PeerID(frame.SenderID)
	key := psession.Key{ShareID: shareID, PeerID: peerID}

	sess, ok := p.sessions.Get(key)
	if !ok {
		p.pending.Append(toBufferKey(key), frame.SerializedConnectionMessage)
		metrics.BufferedMessages.Inc()
		return
	}
	if err := sess.HandleMessage(ctx, frame.SerializedConnectionMessage); err != nil {
		p.log.Warnf("handshake message rejected for %s/%s: %v", shareID, peerID, err)
		p.events.OnLocalError(ctx, shareID, peerID, err)
	}
}

func (p *Provider) handleEncryptedFrame(ctx context.Context, w *wrapBinding, frame *wire.Frame) {
	shareID := model.ShareID(frame.ShareID)
	peerID := model.PeerID(frame.SenderID)
	key := psession.Key{ShareID: shareID, PeerID: peerID}

	sess, ok := p.sessions.Get(key)
	if !ok {
		w.auth.EmitError(ctx, peerID, fmt.Errorf("provider: encrypted frame for %s/%s with no session", shareID, peerID))
		return
	}
	plaintext, err := sess.Decrypt(frame.EncryptedMessage)
	if err != nil {
		// Decryption failure is an inbound error; the session is not
		// auto-closed, it may be replay, reorder, or key rotation.
		w.auth.EmitError(ctx, peerID, fmt.Errorf("provider: decrypt from %s: %w", peerID, err))
		return
	}
	var msg wire.RepositoryMessage
	if err := json.Unmarshal(plaintext, &msg); err != nil {
		w.auth.EmitError(ctx, peerID, fmt.Errorf("provider: decode repository message from %s: %w", peerID, err))
		return
	}
	w.auth.EmitMessage(ctx, peerID, &msg)
}

// RouteOutbound implements adapter.Router: it picks a share for msg's
// target, encrypts msg with that share's session key, and
// transmits the resulting encrypted frame.
func (p *Provider) RouteOutbound(ctx context.Context, msg *wire.RepositoryMessage) error {
	var sendErr error
	p.exec(func() { sendErr = p.routeOutboundLocked(ctx, msg) })
	return sendErr
}

var _ adapter.Router = (*Provider)(nil)
