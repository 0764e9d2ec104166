// Package persist implements the provider's single persisted blob: per-share
// encrypted team state and keyring, encoded compactly and written through
// the store.Store interface under the fixed key ["AuthProvider", "shares"].
package persist

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/store"
)

// Key is the fixed store key path this layer owns.
var Key = []string{"AuthProvider", "shares"}

// ShareEntry is one share's at-rest record. EncryptedTeam holds the bytes
// model.Team.Save produced, stored as they are; EncryptedTeamKeys holds the
// keyring sealed by EncryptKeyring.
type ShareEntry struct {
	EncryptedTeam     []byte `cbor:"encryptedTeam"`
	EncryptedTeamKeys []byte `cbor:"encryptedTeamKeys"`
}

// Blob is the full persisted container, one entry per share.
type Blob struct {
	Shares map[model.ShareID]ShareEntry `cbor:"shares"`
}

// Encode serializes blob using CBOR, the compact binary object format the
// persistence layout calls for.
func Encode(blob Blob) ([]byte, error) {
	data, err := cbor.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("persist: encode blob: %w", err)
	}
	return data, nil
}

// Decode parses bytes previously produced by Encode.
func Decode(data []byte) (Blob, error) {
	var blob Blob
	if err := cbor.Unmarshal(data, &blob); err != nil {
		return Blob{}, fmt.Errorf("persist: decode blob: %w", err)
	}
	if blob.Shares == nil {
		blob.Shares = make(map[model.ShareID]ShareEntry)
	}
	return blob, nil
}

// Load reads and decodes the blob from s. A missing blob is not an error;
// it returns an empty Blob so the caller starts from a clean slate.
func Load(ctx context.Context, s store.Store) (Blob, error) {
	data, ok, err := s.Load(ctx, Key)
	if err != nil {
		return Blob{}, fmt.Errorf("persist: load: %w", err)
	}
	if !ok {
		return Blob{Shares: make(map[model.ShareID]ShareEntry)}, nil
	}
	return Decode(data)
}

// Save encodes and writes blob to s, replacing whatever was there. Callers
// must serialize concurrent Save calls themselves (last-writer-wins on the
// single blob, per the provider's single-threaded command loop).
func Save(ctx context.Context, s store.Store, blob Blob) error {
	data, err := Encode(blob)
	if err != nil {
		return err
	}
	if err := s.Save(ctx, Key, data); err != nil {
		return fmt.Errorf("persist: save: %w", err)
	}
	return nil
}
