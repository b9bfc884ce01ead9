package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/udigest/algo"
	"xdao.co/udigest/udigest"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length,
		// this should be unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// StreamCID returns the CIDv1 (raw codec) addressing the bytes s writes,
// hashed with alg. size 0 selects the algorithm's default size.
//
// The raw codec makes the CID valid for a CAS that stores the canonical
// stream itself: fetching the CID returns bytes that hash back to it.
func StreamCID(alg *algo.Algorithm, s udigest.Stream, size int) (cid.Cid, error) {
	mh, err := alg.Multihash(s, size)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// DigestCID returns the CIDv1 of the canonical stream of d.
func DigestCID(alg *algo.Algorithm, d udigest.Digestable, size int) (cid.Cid, error) {
	return StreamCID(alg, udigest.Single(d), size)
}
