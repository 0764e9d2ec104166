package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPending_DrainsInArrivalOrder(t *testing.T) {
	p := New()
	key := Key{ShareID: "share-1", PeerID: "peer-1"}

	p.Append(key, []byte("one"))
	p.Append(key, []byte("two"))
	p.Append(key, []byte("three"))

	assert.Equal(t, 3, p.Len(key))

	got := p.Drain(key)
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two"), []byte("three")}, got)

	// Drained entries are gone even though nothing consumed them into a session.
	assert.Equal(t, 0, p.Len(key))
	assert.Nil(t, p.Drain(key))
}

func TestPending_KeysAreIndependent(t *testing.T) {
	p := New()
	a := Key{ShareID: "share-1", PeerID: "peer-1"}
	b := Key{ShareID: "share-1", PeerID: "peer-2"}

	p.Append(a, []byte("for-a"))
	p.Append(b, []byte("for-b"))

	assert.Equal(t, [][]byte{[]byte("for-a")}, p.Drain(a))
	assert.Equal(t, [][]byte{[]byte("for-b")}, p.Drain(b))
}

func TestPending_EmptyDrainIsNil(t *testing.T) {
	p := New()
	assert.Nil(t, p.Drain(Key{ShareID: "s", PeerID: "p"}))
}
