package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// KeyStore is a simple local-first store of signing seeds.
//
// EXPERIMENTAL: this filesystem-backed storage surface is not part of the
// stable API and may change in MINOR releases.
//
// Seeds are 32 bytes, stored hex encoded, one file per key. A seed can be
// expanded into an Ed25519 or a Dilithium3 key pair (see Signer). Role keys
// are derived deterministically from a root seed with DeriveRoleSeed.
//
// Layout:
//
//	<dir>/<name>/root.key
//	<dir>/<name>/roles/<role>.key
type KeyStore struct {
	Directory string
}

// KeyEntry lists a root key and the roles derived from it.
type KeyEntry struct {
	Name  string
	Roles []string
}

// DefaultDirectory is ~/.xdao/udigest/keys.
func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".xdao", "udigest", "keys"), nil
}

// OpenKeyStore returns a store rooted at dir, or at DefaultDirectory when
// dir is empty. Nothing is created until a key is written.
func OpenKeyStore(dir string) (*KeyStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDirectory(); err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: dir}, nil
}

func (ks *KeyStore) rootPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) rolePath(name, role string) string {
	return filepath.Join(ks.Directory, name, "roles", role+".key")
}

func checkIdent(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", c, what)
	}
	return nil
}

// CheckKeyName reports whether name is usable as a key directory.
func CheckKeyName(name string) error { return checkIdent("key name", name) }

// CheckRole reports whether role is usable as a role file name.
func CheckRole(role string) error { return checkIdent("role", role) }

// ParseSeedHex parses a 32 byte hex seed, with or without a 0x prefix.
func ParseSeedHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return seed, nil
}

func writeSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readSeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// InitRoot stores seed as the root key of name and returns its signer key.
func (ks *KeyStore) InitRoot(name string, seed []byte, overwrite bool) (signerKey, path string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	path = ks.rootPath(name)
	if err := writeSeed(path, seed, overwrite); err != nil {
		return "", "", err
	}
	return SignerKeyFromSeed(seed), path, nil
}

// DeriveRole derives and stores the role key of name.
func (ks *KeyStore) DeriveRole(name, role string, overwrite bool) (signerKey, path string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	root, err := readSeed(ks.rootPath(name))
	if err != nil {
		return "", "", err
	}
	seed, err := DeriveRoleSeed(root, role)
	if err != nil {
		return "", "", err
	}
	path = ks.rolePath(name, role)
	if err := writeSeed(path, seed, overwrite); err != nil {
		return "", "", err
	}
	return SignerKeyFromSeed(seed), path, nil
}

// Seed loads the root seed of name, or its role seed when role is set.
func (ks *KeyStore) Seed(name, role string) ([]byte, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	if role == "" {
		return readSeed(ks.rootPath(name))
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}
	return readSeed(ks.rolePath(name, role))
}

// Export returns the Ed25519 signer key of a stored seed.
func (ks *KeyStore) Export(name, role string) (string, error) {
	seed, err := ks.Seed(name, role)
	if err != nil {
		return "", err
	}
	return SignerKeyFromSeed(seed), nil
}

// Signer loads a stored seed and expands it for alg.
func (ks *KeyStore) Signer(name, role, alg string) (*Signer, error) {
	seed, err := ks.Seed(name, role)
	if err != nil {
		return nil, err
	}
	return NewSigner(alg, seed)
}

// LoadSeed resolves a seed from the first source given: a literal hex seed,
// a key file, or a stored key name (and optional role).
func (ks *KeyStore) LoadSeed(seedHex, name, role, keyFile string) ([]byte, error) {
	switch {
	case seedHex != "":
		return ParseSeedHex(seedHex)
	case keyFile != "":
		return readSeed(keyFile)
	case name != "":
		return ks.Seed(name, role)
	}
	return nil, errors.New("no signer provided")
}

// List returns every stored key, sorted by name, with its sorted roles.
func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []KeyEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		entry := KeyEntry{Name: e.Name()}
		roleFiles, _ := os.ReadDir(filepath.Join(ks.Directory, e.Name(), "roles"))
		for _, rf := range roleFiles {
			if role, ok := strings.CutSuffix(rf.Name(), ".key"); ok && !rf.IsDir() {
				entry.Roles = append(entry.Roles, role)
			}
		}
		slices.Sort(entry.Roles)
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b KeyEntry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}
