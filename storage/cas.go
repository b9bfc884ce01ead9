package storage

import (
	"github.com/ipfs/go-cid"

	"xdao.co/udigest/cidutil"
	"xdao.co/udigest/udigest"
)

// CAS is a content-addressed store of canonical streams.
//
// Contract:
// - Put is idempotent and stored objects are immutable.
// - The CID of an object is the CIDv1 (raw, sha2-256) of its bytes, so the
//   stream of a value is addressed by its sha256 udigest.
// - Get returns ErrNotFound when the CID is absent and never returns bytes
//   that do not hash to the requested CID.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Lister is implemented by stores that can enumerate their contents.
type Lister interface {
	List() ([]cid.Cid, error)
}

// Sum returns the CID a CAS assigns to b.
func Sum(b []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}
	return id, nil
}

// Check verifies b against id using the hash function named by id itself,
// so objects addressed by any multihash can be validated.
func Check(id cid.Cid, b []byte) error {
	if !id.Defined() {
		return ErrInvalidCID
	}
	got, err := id.Prefix().Sum(b)
	if err != nil {
		return err
	}
	if !got.Equals(id) {
		return ErrCIDMismatch
	}
	return nil
}

// PutStream stores everything s writes.
func PutStream(cas CAS, s udigest.Stream) (cid.Cid, error) {
	return cas.Put(s.Bytes())
}

// PutValue stores the canonical stream of d. The returned CID equals
// ValueCID(d).
func PutValue(cas CAS, d udigest.Digestable) (cid.Cid, error) {
	return PutStream(cas, udigest.Single(d))
}

// ValueCID returns the CID PutValue assigns to d without storing it.
func ValueCID(d udigest.Digestable) (cid.Cid, error) {
	return Sum(udigest.Encode(d))
}
