package teamcrypto

import (
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/authnet/internal/model"
)

// team is the reference model.Team implementation. A real team-graph
// library would carry a full member/device graph and a multi-generation
// keyring; this one carries just enough state to exercise the provider's
// persistence and routing paths.
type team struct {
	Share       model.ShareID
	MemberUsers []model.UserIdentity
	SessionKey  []byte
}

// teamState is the JSON shape team.Save serializes: membership only. The
// session key never appears here; it is carried solely by Keyring, which the
// persistence layer encrypts separately under the device secret key.
type teamState struct {
	Share     string   `json:"share"`
	MemberIDs []string `json:"memberIds"`
}

// keyringState is the JSON shape team.Keyring serializes.
type keyringState struct {
	SessionKey []byte `json:"sessionKey"`
}

func newTeam(share model.ShareID, members []model.UserIdentity, sessionKey []byte) *team {
	return &team{Share: share, MemberUsers: members, SessionKey: sessionKey}
}

func (t *team) ID() model.ShareID { return t.Share }

func (t *team) Members() []model.UserIdentity { return t.MemberUsers }

func (t *team) Save() ([]byte, error) {
	ids := make([]string, len(t.MemberUsers))
	for i, u := range t.MemberUsers {
		ids[i] = u.ID
	}
	data, err := json.Marshal(teamState{Share: string(t.Share), MemberIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("teamcrypto: encode team state: %w", err)
	}
	return data, nil
}

func (t *team) Keyring() ([]byte, error) {
	data, err := json.Marshal(keyringState{SessionKey: t.SessionKey})
	if err != nil {
		return nil, fmt.Errorf("teamcrypto: encode keyring: %w", err)
	}
	return data, nil
}

// LoadTeam reconstructs a team from bytes produced by Save together with the
// (already decrypted) bytes produced by Keyring, mirroring the crypto
// library's loadTeam(data, context, keys) contract. Member identities
// are restored by ID only; a real handshake library would resolve them back
// into full UserIdentity records via its own directory.
func LoadTeam(teamData, keyringData []byte) (model.Team, error) {
	var st teamState
	if err := json.Unmarshal(teamData, &st); err != nil {
		return nil, fmt.Errorf("teamcrypto: decode team state: %w", err)
	}
	var kr keyringState
	if err := json.Unmarshal(keyringData, &kr); err != nil {
		return nil, fmt.Errorf("teamcrypto: decode keyring: %w", err)
	}
	members := make([]model.UserIdentity, len(st.MemberIDs))
	for i, id := range st.MemberIDs {
		members[i] = model.UserIdentity{ID: id}
	}
	return newTeam(model.ShareID(st.Share), members, kr.SessionKey), nil
}

var _ model.Team = (*team)(nil)
