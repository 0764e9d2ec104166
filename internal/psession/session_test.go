package psession

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/teamcrypto"
)

type fakeEvents struct {
	onMessage func(payload []byte)
}

func (f fakeEvents) OnMessage(ctx context.Context, targetID string, payload []byte) error {
	if f.onMessage != nil {
		f.onMessage(payload)
	}
	return nil
}
func (f fakeEvents) OnMember(ctx context.Context, team model.Team) error  { return nil }
func (f fakeEvents) OnUpdated(ctx context.Context, team model.Team) error { return nil }
func (f fakeEvents) OnClosed(ctx context.Context, reason error)           {}

type fakeTeam struct{}

func (fakeTeam) ID() model.ShareID             { return "share-1" }
func (fakeTeam) Members() []model.UserIdentity { return nil }
func (fakeTeam) Save() ([]byte, error)         { return nil, nil }
func (fakeTeam) Keyring() ([]byte, error)      { return nil, nil }

func TestSession_LifecycleReachesConnected(t *testing.T) {
	engine := teamcrypto.NewReferenceEngine()
	ctx := context.Background()

	var aliceHello, bobHello []byte
	aliceEvents := fakeEvents{onMessage: func(p []byte) { aliceHello = p }}
	bobEvents := fakeEvents{onMessage: func(p []byte) { bobHello = p }}

	bobConn, err := engine.Open(ctx, teamcrypto.InviteeAsMemberContext{
		Invitation: &model.MemberInvitation{Share: "share-1", ID: "inv-1"},
		Device:     model.DeviceIdentity{ID: "bob-device"},
		User:       model.UserIdentity{ID: "bob"},
	}, "alice-device", bobEvents)
	require.NoError(t, err)

	aliceConn, err := engine.Open(ctx, teamcrypto.MemberContext{
		Team:   fakeTeam{},
		Device: model.DeviceIdentity{ID: "alice-device", UserID: "alice"},
	}, "bob-device", aliceEvents)
	require.NoError(t, err)

	sess := New(Key{ShareID: "share-1", PeerID: "bob-device"}, aliceConn)
	assert.Equal(t, StateHandshaking, sess.State())

	require.NoError(t, sess.HandleMessage(ctx, bobHello))
	assert.Equal(t, StateMember, sess.State())

	ok := sess.MarkConnected()
	assert.True(t, ok)
	assert.Equal(t, StateConnected, sess.State())

	ct, err := sess.Encrypt([]byte("payload"))
	require.NoError(t, err)

	bobSess := New(Key{ShareID: "share-1", PeerID: "alice-device"}, bobConn)
	require.NoError(t, bobSess.HandleMessage(ctx, aliceHello))
	assert.Equal(t, StateMember, bobSess.State())

	pt, err := bobSess.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), pt)

	require.NoError(t, sess.Close())
	assert.Equal(t, StateClosed, sess.State())
}

func TestSession_MarkConnectedBeforeMemberIsNoop(t *testing.T) {
	engine := teamcrypto.NewReferenceEngine()
	ctx := context.Background()

	conn, err := engine.Open(ctx, teamcrypto.InviteeAsDeviceContext{
		Invitation: &model.DeviceInvitation{Share: "share-1", ID: "inv-2", UserID: "carol"},
		Device:     model.DeviceIdentity{ID: "carol-device-2"},
		User:       model.UserIdentity{ID: "carol"},
	}, "nobody", fakeEvents{})
	require.NoError(t, err)

	sess := New(Key{ShareID: "share-1", PeerID: "nobody"}, conn)
	assert.False(t, sess.MarkConnected())
	assert.Equal(t, StateHandshaking, sess.State())
}

func TestTable_PutGetRemove(t *testing.T) {
	tbl := NewTable()
	conn, err := teamcrypto.NewReferenceEngine().Open(context.Background(), teamcrypto.InviteeAsDeviceContext{
		Invitation: &model.DeviceInvitation{Share: "s1", ID: "inv-3", UserID: "dave"},
		Device:     model.DeviceIdentity{ID: "dev"},
		User:       model.UserIdentity{ID: "dave"},
	}, "p1", fakeEvents{})
	require.NoError(t, err)
	sess := &Session{key: Key{ShareID: "s1", PeerID: "p1"}, conn: conn, state: StateConnected}
	tbl.Put(sess)

	got, ok := tbl.Get(Key{ShareID: "s1", PeerID: "p1"})
	require.True(t, ok)
	assert.Same(t, sess, got)

	connected := tbl.ConnectedPeers()
	assert.Contains(t, connected, model.PeerID("p1"))

	tbl.Remove(Key{ShareID: "s1", PeerID: "p1"})
	_, ok = tbl.Get(Key{ShareID: "s1", PeerID: "p1"})
	assert.False(t, ok)
}
