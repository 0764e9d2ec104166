package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/wire"
)

type fakeBase struct {
	sent []*wire.Frame
}

func (f *fakeBase) Send(ctx context.Context, frame *wire.Frame) error {
	f.sent = append(f.sent, frame)
	return nil
}
func (f *fakeBase) Subscribe(events BaseAdapterEvents) {}

type recordingEvents struct {
	candidates []model.PeerID
	messages   []*wire.RepositoryMessage
	errors     []error
}

func (r *recordingEvents) OnReady(context.Context) {}
func (r *recordingEvents) OnClose(context.Context) {}
func (r *recordingEvents) OnPeerCandidate(ctx context.Context, peerID model.PeerID) {
	r.candidates = append(r.candidates, peerID)
}
func (r *recordingEvents) OnPeerDisconnected(context.Context, model.PeerID) {}
func (r *recordingEvents) OnMessage(ctx context.Context, senderID model.PeerID, msg *wire.RepositoryMessage) {
	r.messages = append(r.messages, msg)
}
func (r *recordingEvents) OnError(ctx context.Context, peerID model.PeerID, err error) {
	r.errors = append(r.errors, err)
}

func TestAuthenticated_PeerCandidateEmittedOnlyOnce(t *testing.T) {
	events := &recordingEvents{}
	a := New(&fakeBase{}, events)
	ctx := context.Background()

	a.EmitPeerCandidate(ctx, "peer-1")
	a.EmitPeerCandidate(ctx, "peer-1")
	a.EmitPeerCandidate(ctx, "peer-2")

	assert.Equal(t, []model.PeerID{"peer-1", "peer-2"}, events.candidates)
}

func TestAuthenticated_PeerCandidateReemittedAfterDisconnect(t *testing.T) {
	events := &recordingEvents{}
	a := New(&fakeBase{}, events)
	ctx := context.Background()

	a.EmitPeerCandidate(ctx, "peer-1")
	a.EmitPeerDisconnected(ctx, "peer-1")
	a.EmitPeerCandidate(ctx, "peer-1")

	assert.Equal(t, []model.PeerID{"peer-1", "peer-1"}, events.candidates)
}

func TestAuthenticated_SendFrameDelegatesToBase(t *testing.T) {
	base := &fakeBase{}
	a := New(base, nil)

	frame := wire.NewEncryptedFrame("me", "you", "share-1", []byte("ct"))
	require.NoError(t, a.SendFrame(context.Background(), frame))
	require.Len(t, base.sent, 1)
	assert.Equal(t, frame, base.sent[0])
}
