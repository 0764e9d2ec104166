// Package store declares the key-value persistence interface the provider
// depends on. The provider never assumes anything about the backend beyond
// this interface; internal/store/memstore and internal/store/pgstore are
// two concrete backends, not the only possible ones.
package store

import "context"

// Store is a minimal async key-value backend addressed by a path of string
// segments, matching the document-sync repository's own storage-subsystem
// contract so the same backend can be reused underneath both.
type Store interface {
	// Save writes value under keyPath, replacing any prior value.
	Save(ctx context.Context, keyPath []string, value []byte) error
	// Load reads the value under keyPath. ok is false if nothing is stored
	// there; that is not an error.
	Load(ctx context.Context, keyPath []string) (value []byte, ok bool, err error)
}

// JoinKeyPath renders a keyPath into one string for backends that store a
// flat keyspace rather than a hierarchical one.
func JoinKeyPath(keyPath []string) string {
	out := ""
	for i, p := range keyPath {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}
