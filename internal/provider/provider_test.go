package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/authnet/adapter"
	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/persist"
	"github.com/sage-x-project/authnet/internal/store/memstore"
	"github.com/sage-x-project/authnet/internal/teamcrypto"
	"github.com/sage-x-project/authnet/internal/wire"
)

// stubTeam is a minimal model.Team for tests that don't need teamcrypto's
// reference team, only a stable identity and serialization round trip.
type stubTeam struct {
	id      model.ShareID
	members []model.UserIdentity
}

func (t *stubTeam) ID() model.ShareID                 { return t.id }
func (t *stubTeam) Members() []model.UserIdentity     { return t.members }
func (t *stubTeam) Save() ([]byte, error)             { return []byte("team:" + t.id), nil }
func (t *stubTeam) Keyring() ([]byte, error)          { return []byte("keyring:" + t.id), nil }

var _ model.Team = (*stubTeam)(nil)

// fakeBase is a directly-wired adapter.BaseAdapter test double: Send on one
// side calls OnMessage on the other, synchronously, standing in for a
// reliable in-order transport.
type fakeBase struct {
	peer   *fakeBase
	events adapter.BaseAdapterEvents
}

func (f *fakeBase) Subscribe(events adapter.BaseAdapterEvents) {
	f.events = events
}

func (f *fakeBase) Send(ctx context.Context, frame *wire.Frame) error {
	cp := *frame
	f.peer.events.OnMessage(ctx, &cp)
	return nil
}

func (f *fakeBase) connect(ctx context.Context, peerID model.PeerID) {
	f.events.OnPeerCandidate(ctx, peerID)
}

// recordingEvents captures every outward provider.Events call for assertions.
type recordingEvents struct {
	joined    []model.ShareID
	connected []model.ShareID
	errs      []error
}

func (r *recordingEvents) OnJoined(ctx context.Context, shareID model.ShareID, peerID model.PeerID, team model.Team, user model.UserIdentity) {
	r.joined = append(r.joined, shareID)
}
func (r *recordingEvents) OnConnected(ctx context.Context, shareID model.ShareID, peerID model.PeerID) {
	r.connected = append(r.connected, shareID)
}
func (r *recordingEvents) OnUpdated(context.Context, model.ShareID, model.PeerID)      {}
func (r *recordingEvents) OnDisconnected(context.Context, model.ShareID, model.PeerID) {}
func (r *recordingEvents) OnLocalError(ctx context.Context, shareID model.ShareID, peerID model.PeerID, err error) {
	r.errs = append(r.errs, err)
}
func (r *recordingEvents) OnRemoteError(ctx context.Context, shareID model.ShareID, peerID model.PeerID, err error) {
	r.errs = append(r.errs, err)
}

// recordingAuthEvents captures the repository-facing adapter callbacks.
type recordingAuthEvents struct {
	candidates []model.PeerID
	messages   []*wire.RepositoryMessage
	errs       []error
}

func (r *recordingAuthEvents) OnReady(context.Context) {}
func (r *recordingAuthEvents) OnClose(context.Context) {}
func (r *recordingAuthEvents) OnPeerCandidate(ctx context.Context, peerID model.PeerID) {
	r.candidates = append(r.candidates, peerID)
}
func (r *recordingAuthEvents) OnPeerDisconnected(context.Context, model.PeerID) {}
func (r *recordingAuthEvents) OnMessage(ctx context.Context, senderID model.PeerID, msg *wire.RepositoryMessage) {
	r.messages = append(r.messages, msg)
}
func (r *recordingAuthEvents) OnError(ctx context.Context, peerID model.PeerID, err error) {
	r.errs = append(r.errs, err)
}

func newTestProvider(t *testing.T, deviceID, userID string, events *recordingEvents) *Provider {
	t.Helper()
	engine := teamcrypto.NewReferenceEngine()
	return New(Config{
		Device:          model.DeviceIdentity{ID: deviceID, UserID: userID},
		DeviceSecretKey: []byte("0123456789abcdef0123456789abcdef"[:32]),
		Engine:          engine,
		TeamLoader:      engine,
		Store:           memstore.New(),
		Events:          events,
	})
}

func TestProvider_TwoDevicesPreExistingTeamConnectAndExchangeMessage(t *testing.T) {
	ctx := context.Background()
	eventsA := &recordingEvents{}
	eventsB := &recordingEvents{}
	providerA := newTestProvider(t, "device-a", "user-1", eventsA)
	providerB := newTestProvider(t, "device-b", "user-1", eventsB)
	defer providerA.Close()
	defer providerB.Close()

	baseA := &fakeBase{}
	baseB := &fakeBase{}
	baseA.peer, baseB.peer = baseB, baseA

	authA := providerA.Wrap(baseA)
	authB := providerB.Wrap(baseB)

	recA := &recordingAuthEvents{}
	recB := &recordingAuthEvents{}
	authA.SetEvents(recA)
	authB.SetEvents(recB)

	require.NoError(t, providerA.AddTeam(ctx, &stubTeam{id: "share-1"}))
	require.NoError(t, providerB.AddTeam(ctx, &stubTeam{id: "share-1"}))

	baseA.connect(ctx, "device-b")
	baseB.connect(ctx, "device-a")

	assert.Contains(t, eventsA.connected, model.ShareID("share-1"))
	assert.Contains(t, eventsB.connected, model.ShareID("share-1"))
	assert.Equal(t, []model.PeerID{"device-b"}, recA.candidates)
	assert.Equal(t, []model.PeerID{"device-a"}, recB.candidates)

	require.NoError(t, authA.Send(ctx, &wire.RepositoryMessage{TargetID: "device-b", DocumentID: "doc-1", Body: []byte("hello")}))

	require.Len(t, recB.messages, 1)
	assert.Equal(t, "doc-1", recB.messages[0].DocumentID)
	assert.Equal(t, []byte("hello"), recB.messages[0].Body)
	assert.Empty(t, recB.errs)
}

func TestProvider_SendWithNoSessionFails(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	p := newTestProvider(t, "device-a", "user-1", events)
	defer p.Close()

	base := &fakeBase{peer: &fakeBase{}}
	base.peer.peer = base
	auth := p.Wrap(base)
	rec := &recordingAuthEvents{}
	auth.SetEvents(rec)

	err := auth.Send(ctx, &wire.RepositoryMessage{TargetID: "ghost", Body: []byte("x")})
	require.Error(t, err)
	require.Len(t, rec.errs, 1)
}

func TestProvider_InvitationFlowJoinsAndPersists(t *testing.T) {
	ctx := context.Background()
	eventsA := &recordingEvents{}
	eventsB := &recordingEvents{}
	providerA := newTestProvider(t, "device-a", "user-1", eventsA)
	providerB := newTestProvider(t, "device-b", "", eventsB)
	defer providerA.Close()
	defer providerB.Close()

	baseA := &fakeBase{}
	baseB := &fakeBase{}
	baseA.peer, baseB.peer = baseB, baseA

	providerA.Wrap(baseA)
	authB := providerB.Wrap(baseB)
	recB := &recordingAuthEvents{}
	authB.SetEvents(recB)

	require.NoError(t, providerA.AddTeam(ctx, &stubTeam{id: "share-2"}))
	require.NoError(t, providerB.AddInvitation(ctx, &model.MemberInvitation{Share: "share-2", ID: "inv-1", InviterUserID: "user-1"}))

	baseA.connect(ctx, "device-b")
	baseB.connect(ctx, "device-a")

	assert.Contains(t, eventsB.joined, model.ShareID("share-2"))
	assert.Contains(t, eventsB.connected, model.ShareID("share-2"))

	_, stillPending := providerB.registry.Invitation("share-2")
	assert.False(t, stillPending)
	_, nowShare := providerB.registry.Share("share-2")
	assert.True(t, nowShare)

	blob, err := persist.Load(ctx, providerB.store)
	require.NoError(t, err)
	assert.Contains(t, blob.Shares, model.ShareID("share-2"))
}
