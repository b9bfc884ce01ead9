package udigest

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"xdao.co/udigest/wire"
)

// WithFunc encodes a struct field routed to it by a `udigest:",with=name"`
// tag. x is the field value. An error aborts the whole encoding.
type WithFunc func(v *wire.Value, x any) error

var (
	withMu    sync.RWMutex
	withFuncs = map[string]WithFunc{}
)

// RegisterWith makes fn available to struct tags as with=name.
func RegisterWith(name string, fn WithFunc) error {
	switch {
	case name == "":
		return fmt.Errorf("udigest: with name is required")
	case fn == nil:
		return fmt.Errorf("udigest: with %q missing func", name)
	}

	withMu.Lock()
	defer withMu.Unlock()
	if _, exists := withFuncs[name]; exists {
		return fmt.Errorf("udigest: with %q already registered", name)
	}
	withFuncs[name] = fn
	return nil
}

func MustRegisterWith(name string, fn WithFunc) {
	if err := RegisterWith(name, fn); err != nil {
		panic(err)
	}
}

// WithNames returns the registered with names, sorted.
func WithNames() []string {
	withMu.RLock()
	defer withMu.RUnlock()
	out := make([]string, 0, len(withFuncs))
	for name := range withFuncs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func lookupWith(name string) (WithFunc, bool) {
	withMu.RLock()
	defer withMu.RUnlock()
	fn, ok := withFuncs[name]
	return fn, ok
}

// newWithEncoder resolves name on every call, so a registration made after
// the owning struct was first encoded still applies.
func newWithEncoder(owner reflect.Type, fieldName, name string) encoderFunc {
	return func(v *wire.Value, rv reflect.Value) {
		fn, ok := lookupWith(name)
		if !ok {
			fail(KindConfig, "UDIGEST-CFG-002", "%s field %s: with %q is not registered", owner, fieldName, name)
		}
		if err := fn(v, rv.Interface()); err != nil {
			fail(KindEncode, "UDIGEST-ENC-002", "%s field %s: with %q: %v", owner, fieldName, name, err)
		}
	}
}
