// Package algo names the digest algorithms the CLI, key store and CAS can
// hash values with, together with their multihash codes.
package algo

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"
	"sort"

	"github.com/multiformats/go-multihash"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"xdao.co/udigest/udigest"
)

// Kind is how an algorithm produces output.
type Kind int

const (
	// Fixed algorithms produce exactly Size bytes.
	Fixed Kind = iota
	// XOF algorithms produce any number of bytes.
	XOF
	// Variable algorithms take the output size up front, within
	// [1, MaxSize].
	Variable
)

func (k Kind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case XOF:
		return "xof"
	case Variable:
		return "variable"
	}
	return "unknown"
}

// Algorithm is a named digest algorithm.
type Algorithm struct {
	Name string
	Kind Kind
	// Size is the default output size in bytes.
	Size int
	// MaxSize bounds Variable output. Zero means unbounded.
	MaxSize int
	// Code is the multihash code of the default size.
	Code uint64

	newFixed func() hash.Hash
	newXOF   func() udigest.XOF
	newVOF   udigest.NewVOF
}

var registry = map[string]*Algorithm{}

func register(a *Algorithm) {
	registry[a.Name] = a
}

func init() {
	register(&Algorithm{Name: "sha256", Kind: Fixed, Size: 32, Code: multihash.SHA2_256, newFixed: sha256.New})
	register(&Algorithm{Name: "sha512", Kind: Fixed, Size: 64, Code: multihash.SHA2_512, newFixed: sha512.New})
	register(&Algorithm{Name: "sha3-256", Kind: Fixed, Size: 32, Code: multihash.SHA3_256, newFixed: sha3.New256})
	register(&Algorithm{Name: "sha3-512", Kind: Fixed, Size: 64, Code: multihash.SHA3_512, newFixed: sha3.New512})
	register(&Algorithm{Name: "keccak-256", Kind: Fixed, Size: 32, Code: multihash.KECCAK_256, newFixed: sha3.NewLegacyKeccak256})
	register(&Algorithm{Name: "blake2b-256", Kind: Fixed, Size: 32, Code: multihash.BLAKE2B_MIN + 31, newFixed: mustBlake2b(32)})
	register(&Algorithm{Name: "blake2b-512", Kind: Fixed, Size: 64, Code: multihash.BLAKE2B_MIN + 63, newFixed: mustBlake2b(64)})
	register(&Algorithm{Name: "blake2b", Kind: Variable, Size: 32, MaxSize: blake2b.Size, Code: multihash.BLAKE2B_MIN + 31, newVOF: newBlake2b})
	register(&Algorithm{Name: "shake128", Kind: XOF, Size: 32, Code: multihash.SHAKE_128, newXOF: func() udigest.XOF { return sha3.NewShake128() }})
	register(&Algorithm{Name: "shake256", Kind: XOF, Size: 64, Code: multihash.SHAKE_256, newXOF: func() udigest.XOF { return sha3.NewShake256() }})
	register(&Algorithm{Name: "blake3", Kind: XOF, Size: 32, Code: multihash.BLAKE3, newXOF: newBlake3})
}

func newBlake2b(size int) (hash.Hash, error) {
	return blake2b.New(size, nil)
}

func mustBlake2b(size int) func() hash.Hash {
	return func() hash.Hash {
		h, err := blake2b.New(size, nil)
		if err != nil {
			panic(err)
		}
		return h
	}
}

// blake3XOF exposes a blake3 hasher as write-then-read.
type blake3XOF struct {
	h   *blake3.Hasher
	out *blake3.Digest
}

func newBlake3() udigest.XOF {
	return &blake3XOF{h: blake3.New()}
}

func (x *blake3XOF) Write(p []byte) (int, error) {
	if x.out != nil {
		panic("algo: blake3 write after read")
	}
	return x.h.Write(p)
}

func (x *blake3XOF) Read(p []byte) (int, error) {
	if x.out == nil {
		x.out = x.h.Digest()
	}
	return x.out.Read(p)
}

// Lookup returns the algorithm registered under name.
func Lookup(name string) (*Algorithm, error) {
	a, ok := registry[name]
	if !ok {
		return nil, &udigest.Error{
			Kind:    udigest.KindConfig,
			RuleID:  "UDIGEST-CFG-002",
			Message: "algo: unknown algorithm " + name,
		}
	}
	return a, nil
}

// MustLookup is like Lookup but panics on an unknown name.
func MustLookup(name string) *Algorithm {
	a, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return a
}

// Names returns the registered algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// outputSize resolves size 0 to the default and validates the rest.
func (a *Algorithm) outputSize(size int) (int, error) {
	if size == 0 {
		return a.Size, nil
	}
	switch {
	case size < 0,
		a.Kind == Fixed && size != a.Size,
		a.MaxSize > 0 && size > a.MaxSize:
		return 0, udigest.InvalidOutputSize(a.Name, size, nil)
	}
	return size, nil
}

// Sum digests everything s writes, producing size bytes (0 for the
// default size).
func (a *Algorithm) Sum(s udigest.Stream, size int) ([]byte, error) {
	n, err := a.outputSize(size)
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case Fixed:
		return s.Sum(a.newFixed(), nil), nil
	case Variable:
		out := make([]byte, n)
		if err := udigest.StreamVOF(a.newVOF, s, out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		out := make([]byte, n)
		if _, err := io.ReadFull(udigest.StreamXOF(a.newXOF(), s), out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Digest digests a single value.
func (a *Algorithm) Digest(d udigest.Digestable, size int) ([]byte, error) {
	return a.Sum(udigest.Single(d), size)
}

// DigestList digests items as a batch.
func (a *Algorithm) DigestList(items []udigest.Digestable, size int) ([]byte, error) {
	return a.Sum(udigest.Batch(items...), size)
}

// MultihashCode returns the multihash code for output of the given size.
// Only blake2b changes code with size.
func (a *Algorithm) MultihashCode(size int) (uint64, error) {
	n, err := a.outputSize(size)
	if err != nil {
		return 0, err
	}
	if a.Kind == Variable {
		return multihash.BLAKE2B_MIN + uint64(n) - 1, nil
	}
	return a.Code, nil
}

// Multihash digests everything s writes and wraps the digest as a
// multihash.
func (a *Algorithm) Multihash(s udigest.Stream, size int) (multihash.Multihash, error) {
	code, err := a.MultihashCode(size)
	if err != nil {
		return nil, err
	}
	sum, err := a.Sum(s, size)
	if err != nil {
		return nil, err
	}
	return multihash.Encode(sum, code)
}
