package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/authnet/internal/model"
)

type fakeTeam struct{ id model.ShareID }

func (f fakeTeam) ID() model.ShareID                { return f.id }
func (f fakeTeam) Members() []model.UserIdentity    { return nil }
func (f fakeTeam) Save() ([]byte, error)            { return nil, nil }
func (f fakeTeam) Keyring() ([]byte, error)          { return nil, nil }

func TestShareRegistry_ShareAndInvitationAreDisjoint(t *testing.T) {
	r := New()
	inv := &model.MemberInvitation{Share: "s1", ID: "inv-1"}
	require.NoError(t, r.AddInvitation(inv))

	share := model.NewShare(fakeTeam{id: "s1"})
	err := r.AddShare(share)
	assert.Error(t, err, "adding a share for a share id with a pending invitation must fail")
}

func TestShareRegistry_RedeemInvitation(t *testing.T) {
	r := New()
	inv := &model.MemberInvitation{Share: "s1", ID: "inv-1"}
	require.NoError(t, r.AddInvitation(inv))

	share := model.NewShare(fakeTeam{id: "s1"})
	require.NoError(t, r.RedeemInvitation("s1", share))

	_, stillPending := r.Invitation("s1")
	assert.False(t, stillPending)

	got, ok := r.Share("s1")
	require.True(t, ok)
	assert.Equal(t, share, got)
}

func TestShareRegistry_RedeemWithoutInvitationFails(t *testing.T) {
	r := New()
	share := model.NewShare(fakeTeam{id: "s1"})
	err := r.RedeemInvitation("s1", share)
	assert.Error(t, err)
}

func TestShareRegistry_ShareForDocument(t *testing.T) {
	r := New()
	s1 := model.NewShare(fakeTeam{id: "s1"})
	s1.AddDocument("doc-a")
	s2 := model.NewShare(fakeTeam{id: "s2"})
	require.NoError(t, r.AddShare(s1))
	require.NoError(t, r.AddShare(s2))

	got := r.ShareForDocument("doc-a")
	require.Len(t, got, 1)
	assert.Equal(t, model.ShareID("s1"), got[0].ID)
}

func TestPeerTracker_ObserveOnlyReportsNewOnce(t *testing.T) {
	pt := NewPeerTracker()
	assert.True(t, pt.Observe("peer-1"))
	assert.False(t, pt.Observe("peer-1"))

	pt.Forget("peer-1")
	assert.True(t, pt.Observe("peer-1"))
}
