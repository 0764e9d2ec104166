// Package wire defines the frame types that travel over a wrapped base
// adapter and the classifier that recognizes them.
//
// Every frame carries a type tag. This layer only cares about two of them,
// auth and encrypted; every other type is an opaque pass-through that the
// base adapter itself understands.
package wire

import "fmt"

// FrameType discriminates the wire variants this layer recognizes.
type FrameType string

const (
	// FrameAuth transports one handshake-engine message between peers for
	// one share.
	FrameAuth FrameType = "auth"
	// FrameEncrypted carries a sealed repository message.
	FrameEncrypted FrameType = "encrypted"
	// FramePassThrough marks any type this layer does not recognize; the
	// provider leaves it untouched, logs it and does not pass it on.
	FramePassThrough FrameType = ""
)

// Frame is the generic envelope every message on the wrapped transport
// carries. TargetID is empty on broadcast discovery frames the base adapter
// may use; those are out of scope here.
type Frame struct {
	Type     string `json:"type"`
	SenderID string `json:"senderId"`
	TargetID string `json:"targetId,omitempty"`

	// Auth payload.
	ShareID                    string `json:"shareId,omitempty"`
	SerializedConnectionMessage []byte `json:"serializedConnectionMessage,omitempty"`

	// Encrypted payload.
	EncryptedMessage []byte `json:"encryptedMessage,omitempty"`

	// Raw is room for a base adapter to keep a pass-through frame's original
	// bytes; wsadapter does not fill it, and this layer never looks inside.
	Raw []byte `json:"-"`
}

// ErrInvalidFrame is returned by Classify when a frame is missing the
// minimum required fields (a string type and a string senderId).
var ErrInvalidFrame = fmt.Errorf("wire: invalid frame")

// Classify determines which variant a frame is. An invalid frame (missing
// type or senderId) returns ErrInvalidFrame; callers must log and drop it
// without disturbing any session.
func Classify(f *Frame) (FrameType, error) {
	if f == nil || f.Type == "" || f.SenderID == "" {
		return "", ErrInvalidFrame
	}
	switch FrameType(f.Type) {
	case FrameAuth:
		if f.ShareID == "" {
			return "", fmt.Errorf("%w: auth frame missing shareId", ErrInvalidFrame)
		}
		return FrameAuth, nil
	case FrameEncrypted:
		if f.ShareID == "" {
			return "", fmt.Errorf("%w: encrypted frame missing shareId", ErrInvalidFrame)
		}
		return FrameEncrypted, nil
	default:
		return FramePassThrough, nil
	}
}

// NewAuthFrame builds an auth frame addressed to targetID carrying one
// handshake-engine message for shareId.
func NewAuthFrame(senderID, targetID, shareID string, payload []byte) *Frame {
	return &Frame{
		Type:                        string(FrameAuth),
		SenderID:                    senderID,
		TargetID:                    targetID,
		ShareID:                     shareID,
		SerializedConnectionMessage: payload,
	}
}

// NewEncryptedFrame builds an encrypted frame addressed to targetID carrying
// a sealed repository message for shareId.
func NewEncryptedFrame(senderID, targetID, shareID string, ciphertext []byte) *Frame {
	return &Frame{
		Type:             string(FrameEncrypted),
		SenderID:         senderID,
		TargetID:         targetID,
		ShareID:          shareID,
		EncryptedMessage: ciphertext,
	}
}
