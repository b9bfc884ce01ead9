package testkit

import (
	"slices"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/udigest/storage"
)

// Memory is an in-memory storage.CAS.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var (
	_ storage.CAS    = (*Memory)(nil)
	_ storage.Lister = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) Put(b []byte) (cid.Cid, error) {
	id, err := storage.Sum(b)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id.KeyString()]; !ok {
		m.objects[id.KeyString()] = slices.Clone(b)
	}
	return id, nil
}

func (m *Memory) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[id.KeyString()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(b), nil
}

func (m *Memory) Has(id cid.Cid) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id.KeyString()]
	return ok && id.Defined()
}

// List returns the stored CIDs in string order.
func (m *Memory) List() ([]cid.Cid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]cid.Cid, 0, len(m.objects))
	for k := range m.objects {
		id, err := cid.Cast([]byte(k))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b cid.Cid) int { return strings.Compare(a.String(), b.String()) })
	return out, nil
}
