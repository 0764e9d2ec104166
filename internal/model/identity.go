// Package model holds the long-lived identities, shares and invitations an
// auth provider tracks. Types here are shared by internal/teamcrypto and
// internal/registry; neither of those may be imported from this package.
package model

import (
	sagecrypto "github.com/sage-x-project/authnet/crypto"
)

// PeerID identifies a remote device across the wrapped transport.
type PeerID string

// ShareID identifies a document-sync share (a "team" in handshake terms).
type ShareID string

// DeviceIdentity is the local device's long-lived signing identity. It is
// never sent over the wire; only its ID is, as the senderId of frames and
// handshake messages.
type DeviceIdentity struct {
	ID     string
	UserID string
	Key    sagecrypto.KeyPair
}

// UserIdentity is the signing identity of the user a device belongs to. A
// team's member list is expressed in terms of UserIdentity, not DeviceIdentity,
// so that a user's other devices are admitted without a separate invitation.
type UserIdentity struct {
	ID  string
	Key sagecrypto.KeyPair
}
