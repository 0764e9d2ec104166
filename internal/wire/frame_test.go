package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		frame   *Frame
		want    FrameType
		wantErr bool
	}{
		{
			name:  "auth frame",
			frame: NewAuthFrame("peer-a", "peer-b", "share-1", []byte("hello")),
			want:  FrameAuth,
		},
		{
			name:  "encrypted frame",
			frame: NewEncryptedFrame("peer-a", "peer-b", "share-1", []byte("sealed")),
			want:  FrameEncrypted,
		},
		{
			name:  "unknown type passes through untouched",
			frame: &Frame{Type: "arrive", SenderID: "peer-a"},
			want:  FramePassThrough,
		},
		{
			name:    "nil frame is invalid",
			frame:   nil,
			wantErr: true,
		},
		{
			name:    "missing type is invalid",
			frame:   &Frame{SenderID: "peer-a"},
			wantErr: true,
		},
		{
			name:    "missing senderId is invalid",
			frame:   &Frame{Type: "auth", ShareID: "share-1"},
			wantErr: true,
		},
		{
			name:    "auth frame missing shareId is invalid",
			frame:   &Frame{Type: "auth", SenderID: "peer-a"},
			wantErr: true,
		},
		{
			name:    "encrypted frame missing shareId is invalid",
			frame:   &Frame{Type: "encrypted", SenderID: "peer-a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.frame)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFrame))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
