// Package teamcrypto declares the interface the external team-graph
// handshake library must satisfy and carries a reference implementation of
// it (X25519 + HKDF-SHA256 + ChaCha20-Poly1305) for tests and the demo
// adapter. internal/provider imports this package for these interfaces; the
// Engine it uses is whatever provider.Config.Engine holds, so a deployment
// can supply another implementation there.
package teamcrypto

import (
	"context"

	"github.com/sage-x-project/authnet/internal/model"
)

// ConnectionEvents defines callbacks the handshake engine uses to surface
// admission decisions to the application layer. The engine never announces
// a peer or stores a team itself; it only emits events the provider reacts
// to.
type ConnectionEvents interface {
	// OnMessage is called with a wire message a Connection wants delivered
	// to targetID for the share the connection was created for.
	OnMessage(ctx context.Context, targetID string, payload []byte) error

	// OnMember is called once a connection reaches the member phase: the
	// local device has been admitted to the team and a session key is
	// available.
	OnMember(ctx context.Context, team model.Team) error

	// OnUpdated is called when the engine's view of an already-admitted
	// team changes (a new member device, a rotated session key) and the
	// application should re-save its persisted copy. The reference engine
	// in this package never calls it: it has no notion of a team changing
	// shape after OnMember, since it only ever negotiates the two-party
	// handshake. A production Engine backed by a real team graph calls it
	// whenever persist's third save trigger applies.
	OnUpdated(ctx context.Context, team model.Team) error

	// OnClosed is called when a connection terminates, successfully or not.
	OnClosed(ctx context.Context, reason error)
}

// NoopConnectionEvents is a default no-op implementation.
type NoopConnectionEvents struct{}

func (NoopConnectionEvents) OnMessage(context.Context, string, []byte) error { return nil }
func (NoopConnectionEvents) OnMember(context.Context, model.Team) error      { return nil }
func (NoopConnectionEvents) OnUpdated(context.Context, model.Team) error     { return nil }
func (NoopConnectionEvents) OnClosed(context.Context, error)                 {}

// Phase is the handshake engine's own state, distinct from the coarser
// Session state machine internal/psession layers on top of it.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseHandshaking
	PhaseMember
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseHandshaking:
		return "handshaking"
	case PhaseMember:
		return "member"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is one (share, peer) handshake-engine instance. The provider
// creates exactly one per pair, feeds it every auth frame addressed to that
// pair in arrival order, and discards it once closed.
type Connection interface {
	// ShareID is the share this connection is negotiating admission to.
	ShareID() model.ShareID
	// PeerID is the remote device this connection is negotiating with.
	PeerID() model.PeerID
	// Phase reports the connection's current handshake phase.
	Phase() Phase

	// HandleMessage feeds one serialized handshake-engine message received
	// from the peer. The engine may call ConnectionEvents any number of
	// times before returning.
	HandleMessage(ctx context.Context, payload []byte) error

	// Encrypt seals an application payload once the connection has reached
	// PhaseMember; it returns an error otherwise.
	Encrypt(plaintext []byte) ([]byte, error)
	// Decrypt opens an application payload sealed by the peer's Encrypt.
	Decrypt(ciphertext []byte) ([]byte, error)

	// Close tears the connection down; Phase becomes PhaseClosed.
	Close() error
}

// HandshakeContext is a sealed sum type describing why a Connection is
// being created: as an existing member opening a new peer connection, as an
// invitee redeeming a device invitation, or as an invitee redeeming a member
// invitation. The three shapes carry different material (a Team vs. an
// Invitation) so they are kept as distinct types rather than one struct with
// optional fields.
type HandshakeContext interface {
	isHandshakeContext()
}

// MemberContext opens a connection from the perspective of a device already
// admitted to the team.
type MemberContext struct {
	Team   model.Team
	Device model.DeviceIdentity
}

func (MemberContext) isHandshakeContext() {}

// InviteeAsDeviceContext opens a connection redeeming a DeviceInvitation:
// the local device joins as an additional device of an existing member.
type InviteeAsDeviceContext struct {
	Invitation *model.DeviceInvitation
	Device     model.DeviceIdentity
	User       model.UserIdentity
}

func (InviteeAsDeviceContext) isHandshakeContext() {}

// InviteeAsMemberContext opens a connection redeeming a MemberInvitation:
// the local user joins the team as a brand new member.
type InviteeAsMemberContext struct {
	Invitation *model.MemberInvitation
	Device     model.DeviceIdentity
	User       model.UserIdentity
}

func (InviteeAsMemberContext) isHandshakeContext() {}

var (
	_ HandshakeContext = MemberContext{}
	_ HandshakeContext = InviteeAsDeviceContext{}
	_ HandshakeContext = InviteeAsMemberContext{}
)

// Engine creates Connections. The provider holds one Engine and asks it for
// a new Connection when a peer becomes a candidate or a share or invitation
// is added for a known peer; auth frames for a (share, peer) pair it does
// not already track are buffered until such a Connection exists.
type Engine interface {
	Open(ctx context.Context, hctx HandshakeContext, peer model.PeerID, events ConnectionEvents) (Connection, error)
}
