package teamcrypto

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/sage-x-project/authnet/internal/metrics"
	"github.com/sage-x-project/authnet/internal/model"
)

const hkdfLabel = "authnet/teamcrypto v1"

// wireHello is the only message this reference engine exchanges. Both
// sides of a pair send one on Open and derive the same session material
// once they have received the other's.
type wireHello struct {
	ShareID      string `json:"shareId"`
	SenderID     string `json:"senderId"`
	Ephemeral    []byte `json:"ephemeral"`
	UserID       string `json:"userId"`
	InvitationID string `json:"invitationId,omitempty"`
}

type connection struct {
	mu sync.Mutex

	shareID model.ShareID
	peerID  model.PeerID
	events  ConnectionEvents

	localUserID   string
	localDeviceID string
	existingTeam  model.Team

	priv         *ecdh.PrivateKey
	pub          *ecdh.PublicKey
	sentHello    bool
	peerHelloSeen bool
	openedAt     time.Time

	phase Phase
	team  model.Team
	aead  interface {
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		NonceSize() int
	}
}

func (c *connection) ShareID() model.ShareID { return c.shareID }
func (c *connection) PeerID() model.PeerID   { return c.peerID }

func (c *connection) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasMember := c.phase == PhaseMember
	c.phase = PhaseClosed
	if wasMember {
		metrics.SessionsActive.Dec()
		metrics.SessionsClosed.Inc()
	}
	return nil
}

func (c *connection) Encrypt(plaintext []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseMember {
		return nil, fmt.Errorf("teamcrypto: connection not member, cannot encrypt")
	}
	start := time.Now()
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		metrics.CryptoErrors.WithLabelValues("encrypt").Inc()
		return nil, fmt.Errorf("teamcrypto: nonce: %w", err)
	}
	ct := c.aead.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, len(nonce)+len(ct))
	copy(out, nonce)
	copy(out[len(nonce):], ct)
	metrics.CryptoOperations.WithLabelValues("encrypt", "chacha20poly1305").Inc()
	metrics.CryptoOperationDuration.WithLabelValues("encrypt", "chacha20poly1305").Observe(time.Since(start).Seconds())
	return out, nil
}

func (c *connection) Decrypt(data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseMember {
		return nil, fmt.Errorf("teamcrypto: connection not member, cannot decrypt")
	}
	start := time.Now()
	ns := c.aead.NonceSize()
	if len(data) < ns {
		metrics.CryptoErrors.WithLabelValues("decrypt").Inc()
		return nil, fmt.Errorf("teamcrypto: ciphertext too short")
	}
	pt, err := c.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("decrypt").Inc()
		return nil, fmt.Errorf("teamcrypto: decrypt: %w", err)
	}
	metrics.CryptoOperations.WithLabelValues("decrypt", "chacha20poly1305").Inc()
	metrics.CryptoOperationDuration.WithLabelValues("decrypt", "chacha20poly1305").Observe(time.Since(start).Seconds())
	return pt, nil
}

func (c *connection) sendHello(ctx context.Context) error {
	hello := wireHello{
		ShareID:   string(c.shareID),
		SenderID:  c.localDeviceID,
		Ephemeral: c.pub.Bytes(),
		UserID:    c.localUserID,
	}
	payload, err := json.Marshal(hello)
	if err != nil {
		return fmt.Errorf("teamcrypto: encode hello: %w", err)
	}
	c.sentHello = true
	c.openedAt = time.Now()
	metrics.HandshakesInitiated.WithLabelValues("initiator").Inc()
	return c.events.OnMessage(ctx, string(c.peerID), payload)
}

func (c *connection) HandleMessage(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	if c.phase != PhaseHandshaking {
		c.mu.Unlock()
		return fmt.Errorf("teamcrypto: connection not handshaking, phase=%s", c.phase)
	}
	if c.peerHelloSeen {
		c.mu.Unlock()
		return fmt.Errorf("teamcrypto: duplicate hello for %s/%s", c.shareID, c.peerID)
	}

	var hello wireHello
	if err := json.Unmarshal(payload, &hello); err != nil {
		c.mu.Unlock()
		metrics.HandshakesFailed.WithLabelValues("invalid").Inc()
		metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
		return fmt.Errorf("teamcrypto: decode hello: %w", err)
	}
	if hello.ShareID != string(c.shareID) {
		c.mu.Unlock()
		metrics.HandshakesFailed.WithLabelValues("invalid").Inc()
		metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
		return fmt.Errorf("teamcrypto: hello for wrong share %q", hello.ShareID)
	}

	peerPub, err := ecdh.X25519().NewPublicKey(hello.Ephemeral)
	if err != nil {
		c.mu.Unlock()
		metrics.HandshakesFailed.WithLabelValues("invalid").Inc()
		metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
		return fmt.Errorf("teamcrypto: bad peer ephemeral: %w", err)
	}
	shared, err := c.priv.ECDH(peerPub)
	if err != nil {
		c.mu.Unlock()
		metrics.HandshakesFailed.WithLabelValues("network").Inc()
		metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
		return fmt.Errorf("teamcrypto: ecdh: %w", err)
	}
	sessionKey, err := deriveSessionKey(shared, c.pub.Bytes(), hello.Ephemeral)
	if err != nil {
		c.mu.Unlock()
		metrics.HandshakesFailed.WithLabelValues("invalid").Inc()
		metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
		return err
	}
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		c.mu.Unlock()
		metrics.HandshakesFailed.WithLabelValues("invalid").Inc()
		metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
		return fmt.Errorf("teamcrypto: new aead: %w", err)
	}

	tm := c.existingTeam
	if tm == nil {
		tm = newTeam(c.shareID, []model.UserIdentity{{ID: c.localUserID}}, sessionKey)
	}

	c.peerHelloSeen = true
	c.aead = aead
	c.team = tm
	c.phase = PhaseMember
	openedAt := c.openedAt
	c.mu.Unlock()

	metrics.HandshakesCompleted.WithLabelValues("success").Inc()
	metrics.SessionsCreated.WithLabelValues("success").Inc()
	metrics.SessionsActive.Inc()
	if !openedAt.IsZero() {
		metrics.SessionDuration.WithLabelValues("success").Observe(time.Since(openedAt).Seconds())
	}

	if err := c.events.OnMember(ctx, tm); err != nil {
		return err
	}
	return nil
}

// deriveSessionKey mirrors the ordering discipline of a canonical
// ECDH+HKDF session derivation: both sides hash the two ephemeral public
// keys in sorted order so the salt matches regardless of who dialed.
func deriveSessionKey(shared, selfPub, peerPub []byte) ([]byte, error) {
	lo, hi := selfPub, peerPub
	if bytesCompare(peerPub, selfPub) < 0 {
		lo, hi = peerPub, selfPub
	}
	h := sha256.New()
	h.Write([]byte(hkdfLabel))
	h.Write(lo)
	h.Write(hi)
	salt := h.Sum(nil)

	r := hkdf.New(sha256.New, shared, salt, []byte(hkdfLabel))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("teamcrypto: hkdf: %w", err)
	}
	return key, nil
}

func bytesCompare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

var _ Connection = (*connection)(nil)
