package model

// Invitation is a sealed sum type: a pending admission to a share is either
// a MemberInvitation (join as a new user) or a DeviceInvitation (join as an
// additional device of an existing member). Modeling this as a Go interface
// with an unexported marker method keeps the two shapes distinct instead of
// collapsing them into one struct with optional fields.
type Invitation interface {
	ShareID() ShareID
	InvitationID() string
	isInvitation()
}

// MemberInvitation admits a brand new user to a share.
type MemberInvitation struct {
	Share ShareID
	ID    string

	// InviterUserID is the existing member who issued the invitation.
	InviterUserID string
}

func (i *MemberInvitation) ShareID() ShareID      { return i.Share }
func (i *MemberInvitation) InvitationID() string  { return i.ID }
func (i *MemberInvitation) isInvitation()         {}

// DeviceInvitation admits a new device belonging to an existing member.
type DeviceInvitation struct {
	Share  ShareID
	ID     string
	UserID string
}

func (i *DeviceInvitation) ShareID() ShareID     { return i.Share }
func (i *DeviceInvitation) InvitationID() string { return i.ID }
func (i *DeviceInvitation) isInvitation()        {}

var (
	_ Invitation = (*MemberInvitation)(nil)
	_ Invitation = (*DeviceInvitation)(nil)
)
