// Package cidutil validates and derives content addresses for registry documents.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// Parse checks that addr decodes as a CID (v0 "Qm..." or any multibase v1)
// and returns it unchanged. The registry stores addresses as given.
func Parse(addr string) (model.ContentAddr, error) {
	if addr == "" {
		return "", fmt.Errorf("%w: empty content address", errs.ErrInvalidArgument)
	}
	if _, err := cid.Decode(addr); err != nil {
		return "", fmt.Errorf("%w: content address %q: %v", errs.ErrInvalidArgument, addr, err)
	}
	return model.ContentAddr(addr), nil
}

// ForDocument returns the CIDv1 (raw codec, sha2-256) of a document's bytes,
// the same address `ipfs add --raw-leaves --cid-version=1` gives a single-block file.
func ForDocument(data []byte) (model.ContentAddr, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return model.ContentAddr(cid.NewCidV1(cid.Raw, sum).String()), nil
}
