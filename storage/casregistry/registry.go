// Package casregistry lets binaries pick a storage backend by name.
//
// Backends are linked at build time: a backend package registers itself in
// init() and a binary enables it with a (usually blank) import.
package casregistry

import (
	"flag"
	"fmt"
	"slices"
	"strings"
	"sync"

	"xdao.co/udigest/storage"
)

// Config holds backend settings keyed like the backend's flag names.
type Config map[string]string

// Backend describes one pluggable store.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// RegisterFlags adds backend flags to fs. It is called at most once per
	// process.
	RegisterFlags func(fs *flag.FlagSet)

	// Open builds the store from the values parsed into its flags. The
	// returned close function may be nil.
	Open func() (storage.CAS, func() error, error)

	// OpenConfig builds the store from a config map. Backends without it
	// cannot be used from config files.
	OpenConfig func(cfg Config) (storage.CAS, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register adds b to the registry.
func Register(b Backend) error {
	switch {
	case b.Name == "":
		return fmt.Errorf("casregistry: backend name is required")
	case b.RegisterFlags == nil:
		return fmt.Errorf("casregistry: backend %q missing RegisterFlags", b.Name)
	case b.Open == nil:
		return fmt.Errorf("casregistry: backend %q missing Open", b.Name)
	case b.Usage == 0:
		return fmt.Errorf("casregistry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("casregistry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends allowed for usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	var out []Backend
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b Backend) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Names returns the sorted names of backends allowed for usage.
func Names(usage Usage) []string {
	var n []string
	for _, b := range List(usage) {
		n = append(n, b.Name)
	}
	return n
}

// RegisterFlags registers the flags of every backend allowed for usage, so
// a single flag.Parse accepts all of them.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		b.RegisterFlags(fs)
	}
}

func lookup(name string, usage Usage) (Backend, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return Backend{}, fmt.Errorf("unknown backend %q (have %s)", name, strings.Join(Names(usage), ", "))
	}
	if !b.Usage.allows(usage) {
		return Backend{}, fmt.Errorf("backend %q not supported in this binary", name)
	}
	return b, nil
}

// Open opens the named backend from its parsed flags.
func Open(name string, usage Usage) (storage.CAS, func() error, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, nil, err
	}
	return b.Open()
}

// OpenWithConfig opens the named backend from cfg.
func OpenWithConfig(name string, usage Usage, cfg Config) (storage.CAS, func() error, error) {
	b, err := lookup(name, usage)
	if err != nil {
		return nil, nil, err
	}
	if b.OpenConfig == nil {
		return nil, nil, fmt.Errorf("backend %q cannot be opened from config", name)
	}
	return b.OpenConfig(cfg)
}

// Require returns cfg[key] or an error naming the missing key.
func (cfg Config) Require(key string) (string, error) {
	v := strings.TrimSpace(cfg[key])
	if v == "" {
		return "", fmt.Errorf("missing config key %q", key)
	}
	return v, nil
}
