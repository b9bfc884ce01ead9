// Package casconfig opens one or more registry backends from a config file.
//
// Binaries still link the backends they accept with blank imports.
package casconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"xdao.co/udigest/storage"
	"xdao.co/udigest/storage/casregistry"
)

// Write policies.
const (
	// WriteFirst writes to the first backend only; reads fall back in order.
	WriteFirst = "first"
	// WriteAll writes to every backend and requires equal CIDs.
	WriteAll = "all"
)

// Config selects backends. Example (JSON; YAML takes the same keys):
//
//	{
//	  "write_policy": "all",
//	  "backends": [
//	    {"name":"localfs", "config":{"localfs-dir":"/tmp/cas"}},
//	    {"name":"ipfs", "id":"pinned", "config":{"ipfs-path":"/tmp/ipfs", "ipfs-pin":"true"}}
//	  ]
//	}
//
// Backend config keys mirror the backend's flag names.
type Config struct {
	WritePolicy string          `json:"write_policy,omitempty" yaml:"write_policy,omitempty"`
	Backends    []BackendConfig `json:"backends" yaml:"backends"`
}

type BackendConfig struct {
	// Name is the casregistry backend name.
	Name string `json:"name" yaml:"name"`
	// ID is an optional alias used in logs and per-backend CID maps.
	// Defaults to Name.
	ID     string            `json:"id,omitempty" yaml:"id,omitempty"`
	Config map[string]string `json:"config,omitempty" yaml:"config,omitempty"`
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// LoadFile reads a JSON config, or a YAML one when the file ends in
// .yaml or .yml. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("casconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("casconfig: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("casconfig: at least one backend is required")
	}
	seen := make(map[string]bool, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("casconfig: backend name is required")
		}
		if seen[b.id()] {
			return fmt.Errorf("casconfig: duplicate backend id %q", b.id())
		}
		seen[b.id()] = true
	}
	switch c.WritePolicy {
	case "", WriteFirst, WriteAll:
		return nil
	}
	return fmt.Errorf("casconfig: invalid write_policy %q", c.WritePolicy)
}

// Options tune Open.
type Options struct {
	// Preferred moves the backend with this name or id to the front, making
	// it the write target under WriteFirst.
	Preferred string
	// Log, when set, wraps every backend in storage.Logged.
	Log logrus.FieldLogger
}

// Open opens every configured backend and combines them per WritePolicy.
// The returned function closes all of them.
func (c Config) Open(usage casregistry.Usage, opts Options) (storage.CAS, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	ordered, err := c.ordered(opts.Preferred)
	if err != nil {
		return nil, nil, err
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	named := make([]storage.NamedCAS, 0, len(ordered))
	for _, b := range ordered {
		cas, closeFn, err := casregistry.OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("casconfig: backend %q: %w", b.id(), err)
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		if opts.Log != nil {
			cas = storage.Logged{CAS: cas, Log: opts.Log, Backend: b.id()}
		}
		named = append(named, storage.NamedCAS{Name: b.id(), CAS: cas})
	}

	if len(named) == 1 {
		return named[0].CAS, closeAll, nil
	}
	if c.WritePolicy == WriteAll {
		return storage.ReplicatingCAS{Backends: named}, closeAll, nil
	}
	adapters := make([]storage.CAS, len(named))
	for i, n := range named {
		adapters[i] = n.CAS
	}
	return storage.MultiCAS{Adapters: adapters}, closeAll, nil
}

func (c Config) ordered(preferred string) ([]BackendConfig, error) {
	out := append([]BackendConfig(nil), c.Backends...)
	if preferred == "" {
		return out, nil
	}
	for i, b := range out {
		if b.Name == preferred || b.ID == preferred {
			copy(out[1:i+1], out[:i])
			out[0] = b
			return out, nil
		}
	}
	return nil, fmt.Errorf("casconfig: preferred backend %q not found in config", preferred)
}
