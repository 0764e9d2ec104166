package teamcrypto

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"fmt"

	"github.com/sage-x-project/authnet/internal/model"
)

// ReferenceEngine is a self-contained Engine implementation used by tests
// and the demo adapter in place of the real team-graph handshake library.
// It admits any peer unconditionally after one ECDH round; a production
// engine would additionally verify the invitation against the share's
// member graph before reaching PhaseMember.
type ReferenceEngine struct{}

// NewReferenceEngine builds a ReferenceEngine.
func NewReferenceEngine() *ReferenceEngine {
	return &ReferenceEngine{}
}

func (e *ReferenceEngine) Open(ctx context.Context, hctx HandshakeContext, peer model.PeerID, events ConnectionEvents) (Connection, error) {
	if events == nil {
		events = NoopConnectionEvents{}
	}

	var shareID model.ShareID
	var userID, deviceID string
	var existingTeam model.Team

	switch c := hctx.(type) {
	case MemberContext:
		shareID = c.Team.ID()
		userID = c.Device.UserID
		deviceID = c.Device.ID
		existingTeam = c.Team
	case InviteeAsDeviceContext:
		shareID = c.Invitation.ShareID()
		userID = c.Invitation.UserID
		deviceID = c.Device.ID
	case InviteeAsMemberContext:
		shareID = c.Invitation.ShareID()
		userID = c.User.ID
		deviceID = c.Device.ID
	default:
		return nil, fmt.Errorf("teamcrypto: unknown handshake context %T", hctx)
	}

	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("teamcrypto: generate ephemeral key: %w", err)
	}

	conn := &connection{
		shareID:       shareID,
		peerID:        peer,
		events:        events,
		localUserID:   userID,
		localDeviceID: deviceID,
		existingTeam:  existingTeam,
		priv:          priv,
		pub:           priv.PublicKey(),
		phase:         PhaseHandshaking,
	}

	if err := conn.sendHello(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

// LoadTeam reconstructs a team from its persisted Save/Keyring bytes,
// satisfying the provider's TeamLoader dependency.
func (e *ReferenceEngine) LoadTeam(teamData, keyringData []byte) (model.Team, error) {
	return LoadTeam(teamData, keyringData)
}

var _ Engine = (*ReferenceEngine)(nil)
