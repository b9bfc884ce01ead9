package testkit

import (
	"testing"

	"xdao.co/udigest/storage"
)

func TestMemory_Conformance(t *testing.T) {
	RunCASConformance(t, func(t *testing.T) storage.CAS { return NewMemory() })
}

func TestMemory_List(t *testing.T) {
	m := NewMemory()
	for _, s := range []string{"c", "a", "b", "a"} {
		if _, err := m.Put([]byte(s)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	ids, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1].String() >= ids[i].String() {
			t.Fatalf("List not sorted: %s >= %s", ids[i-1], ids[i])
		}
	}
}
