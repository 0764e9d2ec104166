package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, ok, err := s.Load(ctx, []string{"AuthProvider", "shares"})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, []string{"AuthProvider", "shares"}, []byte("blob")))

	got, ok, err := s.Load(ctx, []string{"AuthProvider", "shares"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("blob"), got)
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Save(ctx, []string{"k"}, []byte("v1")))
	require.NoError(t, s.Save(ctx, []string{"k"}, []byte("v2")))

	got, _, err := s.Load(ctx, []string{"k"})
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}
