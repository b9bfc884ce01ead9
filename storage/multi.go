package storage

import (
	"github.com/ipfs/go-cid"
)

// MultiCAS reads with ordered fallback across Adapters and writes to the
// first one only. The order is the slice order, never map order.
type MultiCAS struct {
	Adapters []CAS
}

var _ CAS = MultiCAS{}

func (m MultiCAS) Put(bytes []byte) (cid.Cid, error) {
	if len(m.Adapters) == 0 {
		return cid.Undef, ErrNoBackends
	}
	return m.Adapters[0].Put(bytes)
}

func (m MultiCAS) Get(id cid.Cid) ([]byte, error) {
	return getFirst(m.Adapters, id)
}

func (m MultiCAS) Has(id cid.Cid) bool {
	for _, c := range m.Adapters {
		if c != nil && c.Has(id) {
			return true
		}
	}
	return false
}

// getFirst returns the first hit in order. A miss moves on to the next
// store; any other error stops the walk.
func getFirst(stores []CAS, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	for _, c := range stores {
		if c == nil {
			continue
		}
		b, err := c.Get(id)
		switch {
		case err == nil:
			return b, nil
		case IsNotFound(err):
			continue
		default:
			return nil, err
		}
	}
	return nil, ErrNotFound
}
