package teamcrypto

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/authnet/internal/metrics"
	"github.com/sage-x-project/authnet/internal/model"
)

// wire relays OnMessage calls between two connections synchronously, as if
// the provider forwarded auth frames over a transport with no latency.
// Messages for a target that is not routed yet are queued and delivered
// when route registers it, as the provider's pending buffer does.
type wire struct {
	mu      sync.Mutex
	dest    map[string]Connection
	pending map[string][][]byte
}

func (w *wire) route(id string, conn Connection) {
	w.mu.Lock()
	w.dest[id] = conn
	queued := w.pending[id]
	delete(w.pending, id)
	w.mu.Unlock()
	for _, payload := range queued {
		_ = conn.HandleMessage(context.Background(), payload)
	}
}

type relayEvents struct {
	w        *wire
	received []model.Team
}

func (r *relayEvents) OnMessage(ctx context.Context, targetID string, payload []byte) error {
	r.w.mu.Lock()
	conn := r.w.dest[targetID]
	if conn == nil {
		if r.w.pending == nil {
			r.w.pending = make(map[string][][]byte)
		}
		r.w.pending[targetID] = append(r.w.pending[targetID], payload)
		r.w.mu.Unlock()
		return nil
	}
	r.w.mu.Unlock()
	return conn.HandleMessage(ctx, payload)
}

func (r *relayEvents) OnMember(ctx context.Context, team model.Team) error {
	r.received = append(r.received, team)
	return nil
}

func (r *relayEvents) OnUpdated(ctx context.Context, team model.Team) error { return nil }

func (r *relayEvents) OnClosed(ctx context.Context, reason error) {}

func TestReferenceEngine_HandshakeReachesMember(t *testing.T) {
	engine := NewReferenceEngine()
	w := &wire{dest: make(map[string]Connection)}

	aliceEvents := &relayEvents{w: w}
	bobEvents := &relayEvents{w: w}

	ctx := context.Background()

	bobConn, err := engine.Open(ctx, InviteeAsMemberContext{
		Invitation: &model.MemberInvitation{Share: "share-1", ID: "inv-1"},
		Device:     model.DeviceIdentity{ID: "bob-device"},
		User:       model.UserIdentity{ID: "bob"},
	}, "alice-device", bobEvents)
	require.NoError(t, err)
	w.route("bob-device", bobConn)

	aliceConn, err := engine.Open(ctx, MemberContext{
		Team:   newTeam("share-1", []model.UserIdentity{{ID: "alice"}}, []byte("root-secret")),
		Device: model.DeviceIdentity{ID: "alice-device", UserID: "alice"},
	}, "bob-device", aliceEvents)
	require.NoError(t, err)
	w.route("alice-device", aliceConn)

	assert.Equal(t, PhaseMember, aliceConn.Phase())
	assert.Equal(t, PhaseMember, bobConn.Phase())
	require.Len(t, aliceEvents.received, 1)
	require.Len(t, bobEvents.received, 1)

	plaintext := []byte("hello from alice")
	ct, err := aliceConn.Encrypt(plaintext)
	require.NoError(t, err)
	pt, err := bobConn.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)

	assert.Greater(t, testutil.ToFloat64(metrics.SessionsActive), float64(0))
	assert.NoError(t, bobConn.Close())
	assert.NoError(t, aliceConn.Close())
}

func TestConnection_EncryptBeforeMemberFails(t *testing.T) {
	engine := NewReferenceEngine()
	w := &wire{dest: make(map[string]Connection)}
	events := &relayEvents{w: w}

	conn, err := engine.Open(context.Background(), InviteeAsDeviceContext{
		Invitation: &model.DeviceInvitation{Share: "share-1", ID: "inv-2", UserID: "carol"},
		Device:     model.DeviceIdentity{ID: "carol-device-2"},
		User:       model.UserIdentity{ID: "carol"},
	}, "nobody", events)
	require.NoError(t, err)

	_, err = conn.Encrypt([]byte("too soon"))
	assert.Error(t, err)
}

func TestConnection_DuplicateHelloRejected(t *testing.T) {
	engine := NewReferenceEngine()
	w := &wire{dest: make(map[string]Connection)}

	aliceEvents := &relayEvents{w: w}
	bobEvents := &relayEvents{w: w}
	ctx := context.Background()

	bobConn, err := engine.Open(ctx, InviteeAsMemberContext{
		Invitation: &model.MemberInvitation{Share: "share-1", ID: "inv-1"},
		Device:     model.DeviceIdentity{ID: "bob-device"},
		User:       model.UserIdentity{ID: "bob"},
	}, "alice-device", bobEvents)
	require.NoError(t, err)
	w.route("bob-device", bobConn)

	aliceConn, err := engine.Open(ctx, MemberContext{
		Team:   newTeam("share-1", []model.UserIdentity{{ID: "alice"}}, []byte("root-secret")),
		Device: model.DeviceIdentity{ID: "alice-device", UserID: "alice"},
	}, "bob-device", aliceEvents)
	require.NoError(t, err)

	assert.Equal(t, PhaseMember, bobConn.Phase())
	err = bobConn.HandleMessage(ctx, []byte(`{"shareId":"share-1","senderId":"alice-device"}`))
	assert.Error(t, err)
	_ = aliceConn
}
