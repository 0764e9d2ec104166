package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/store/memstore"
)

func TestBlob_EncodeDecodeRoundTrip(t *testing.T) {
	blob := Blob{Shares: map[model.ShareID]ShareEntry{
		"share-1": {EncryptedTeam: []byte("team-bytes"), EncryptedTeamKeys: []byte("keyring-bytes")},
	}}

	data, err := Encode(blob)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, blob.Shares["share-1"], decoded.Shares["share-1"])
}

func TestLoad_AbsentBlobIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	blob, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, blob.Shares)
}

func TestSaveThenLoad_RoundTripsThroughStore(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	blob := Blob{Shares: map[model.ShareID]ShareEntry{
		"share-1": {EncryptedTeam: []byte("t"), EncryptedTeamKeys: []byte("k")},
	}}
	require.NoError(t, Save(ctx, s, blob))

	got, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, blob.Shares["share-1"], got.Shares["share-1"])
}

func TestKeyringEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	sealed, err := EncryptKeyring([]byte("session-keys"), key)
	require.NoError(t, err)

	opened, err := DecryptKeyring(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("session-keys"), opened)
}

func TestKeyringDecrypt_WrongKeyFails(t *testing.T) {
	key := make([]byte, 32)
	wrongKey := make([]byte, 32)
	wrongKey[0] = 1

	sealed, err := EncryptKeyring([]byte("session-keys"), key)
	require.NoError(t, err)

	_, err = DecryptKeyring(sealed, wrongKey)
	assert.Error(t, err)
}
