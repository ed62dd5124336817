// Package checksum fingerprints repository files for change detection.
package checksum

import (
	"fmt"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CID returns the CIDv1 (raw codec, sha2-256) of data.
func CID(data []byte) (gocid.Cid, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return gocid.Undef, fmt.Errorf("checksum: multihash: %w", err)
	}
	return gocid.NewCidV1(gocid.Raw, mh), nil
}

// Sum returns the string form of CID(data). sha2-256 is always registered,
// so the empty string is only returned if the multihash table is broken.
func Sum(data []byte) string {
	c, err := CID(data)
	if err != nil {
		return ""
	}
	return c.String()
}
