package teamcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/authnet/internal/model"
)

func TestTeam_SaveAndLoadRoundTrip(t *testing.T) {
	original := newTeam("share-1", []model.UserIdentity{{ID: "alice"}, {ID: "bob"}}, []byte("secret-key"))

	data, err := original.Save()
	require.NoError(t, err)
	keyring, err := original.Keyring()
	require.NoError(t, err)

	loaded, err := LoadTeam(data, keyring)
	require.NoError(t, err)

	assert.Equal(t, original.ID(), loaded.ID())
	loadedTeamKeyring, err := loaded.Keyring()
	require.NoError(t, err)
	assert.Equal(t, keyring, loadedTeamKeyring)
	require.Len(t, loaded.Members(), 2)
	assert.Equal(t, "alice", loaded.Members()[0].ID)
}

func TestTeam_Keyring(t *testing.T) {
	tm := newTeam("share-1", nil, []byte("k"))
	kr, err := tm.Keyring()
	require.NoError(t, err)
	assert.Contains(t, string(kr), "sessionKey")
}
