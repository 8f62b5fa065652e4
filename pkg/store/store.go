// Package store persists named byte blobs.
package store

import (
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrInvalidName = errors.New("store: invalid name")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Blobs is a flat namespace of byte blobs.
//
// Contract:
// - Put replaces any existing blob of the same name atomically.
// - Get and Delete MUST return ErrNotFound when the name is absent.
// - List returns names in lexicographic order.
type Blobs interface {
	Put(name string, data []byte) error
	Get(name string) ([]byte, error)
	Delete(name string) error
	List() ([]string, error)
}

// ContentID returns a CIDv1 string using the "raw" multicodec and a
// sha2-256 multihash of data.
func ContentID(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}
