// Package psession layers the provider-visible session state machine
// (created, handshaking, member, connected, closed) on top of a
// teamcrypto.Connection.
package psession

import (
	"context"
	"fmt"
	"sync"

	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/teamcrypto"
)

// State is a Session's position in its lifecycle. Closed is terminal: a
// closed Session is never reused, a fresh one is created instead.
type State int

const (
	StateCreated State = iota
	StateHandshaking
	StateMember
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateHandshaking:
		return "handshaking"
	case StateMember:
		return "member"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Key identifies a Session by the (share, peer) pair it multiplexes the
// handshake engine over. At most one Session exists per Key at a time.
type Key struct {
	ShareID model.ShareID
	PeerID  model.PeerID
}

// Session is one (share, peer) connection's provider-visible lifecycle. It
// wraps a teamcrypto.Connection and adds the "connected" state the handshake
// engine itself has no notion of: a session becomes connected once the
// surrounding base adapter confirms the peer is reachable, not merely once
// the cryptographic handshake finished.
type Session struct {
	mu    sync.Mutex
	key   Key
	conn  teamcrypto.Connection
	state State
	team  model.Team
}

// New wraps conn, starting in StateHandshaking since Open has already sent
// its first handshake message before returning a Connection.
func New(key Key, conn teamcrypto.Connection) *Session {
	return &Session{key: key, conn: conn, state: StateHandshaking}
}

func (s *Session) Key() Key { return s.key }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Team returns the admitted team, valid once State is StateMember or later.
func (s *Session) Team() (model.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.team, s.team != nil
}

// HandleMessage feeds one handshake payload to the underlying connection
// and advances state to StateMember if the connection reached its member
// phase as a result.
func (s *Session) HandleMessage(ctx context.Context, payload []byte) error {
	if err := s.conn.HandleMessage(ctx, payload); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return fmt.Errorf("psession: %v/%v is closed", s.key.ShareID, s.key.PeerID)
	}
	if s.conn.Phase() == teamcrypto.PhaseMember && s.state == StateHandshaking {
		s.state = StateMember
	}
	return nil
}

// MarkMember is used when the team is already known without a HandleMessage
// round trip, e.g. when internal/teamcrypto calls ConnectionEvents.OnMember
// directly.
func (s *Session) MarkMember(team model.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.team = team
	if s.state == StateHandshaking {
		s.state = StateMember
	}
}

// MarkConnected transitions a member session to connected once the base
// adapter confirms the peer reachable. It is a no-op, not an error, if
// called before the handshake reached member, and reports false; the
// provider calls it right after MarkMember.
func (s *Session) MarkConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateMember {
		return false
	}
	s.state = StateConnected
	return true
}

// Encrypt seals an application payload for this session's peer. Only valid
// once State is StateConnected.
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return nil, fmt.Errorf("psession: %v/%v not connected, state=%s", s.key.ShareID, s.key.PeerID, s.state)
	}
	return s.conn.Encrypt(plaintext)
}

// Decrypt opens an application payload from this session's peer.
func (s *Session) Decrypt(ciphertext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected && s.state != StateMember {
		return nil, fmt.Errorf("psession: %v/%v not member, state=%s", s.key.ShareID, s.key.PeerID, s.state)
	}
	return s.conn.Decrypt(ciphertext)
}

// SessionKey returns the bytes the outbound tie-break orders sessions by:
// the admitted team's serialized keyring (model.Team.Keyring). It is not
// the per-connection key the handshake derived, which teamcrypto.Connection
// does not expose; sessions of the same team return the same bytes.
func (s *Session) SessionKey() ([]byte, error) {
	s.mu.Lock()
	team := s.team
	s.mu.Unlock()
	if team == nil {
		return nil, fmt.Errorf("psession: %v/%v has no team yet", s.key.ShareID, s.key.PeerID)
	}
	return team.Keyring()
}

// Close tears the session down. Closed is terminal; the table drops it.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	return s.conn.Close()
}
