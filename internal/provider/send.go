package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/psession"
	"github.com/sage-x-project/authnet/internal/wire"
)

// routeOutboundLocked implements the outbound share selection, then
// encrypts and transmits msg. Must only be called from the command loop.
func (p *Provider) routeOutboundLocked(ctx context.Context, msg *wire.RepositoryMessage) error {
	peerID := model.PeerID(msg.TargetID)
	candidates := p.sessions.ByPeer(peerID)

	var connected []*psession.Session
	for _, s := range candidates {
		if s.State() == psession.StateConnected {
			connected = append(connected, s)
		}
	}
	if len(connected) == 0 {
		return fmt.Errorf("provider: no share for peer %s", msg.TargetID)
	}

	chosen := connected[0]
	if len(connected) > 1 {
		// Tie-break by lexicographic order of SessionKey bytes (each
		// session's team keyring). msg.DocumentID is not consulted.
		sort.Slice(connected, func(i, j int) bool {
			ki, _ := connected[i].SessionKey()
			kj, _ := connected[j].SessionKey()
			return bytes.Compare(ki, kj) < 0
		})
		chosen = connected[0]
	}

	plaintext, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("provider: encode repository message: %w", err)
	}
	ciphertext, err := chosen.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("provider: encrypt for %s/%s: %w", chosen.Key().ShareID, peerID, err)
	}

	w, ok := p.wrapFor(peerID)
	if !ok {
		return fmt.Errorf("provider: no wrapped adapter for peer %s", peerID)
	}
	frame := wire.NewEncryptedFrame(p.device.ID, msg.TargetID, string(chosen.Key().ShareID), ciphertext)
	return w.auth.SendFrame(ctx, frame)
}
