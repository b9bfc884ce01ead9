package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeyStoreRootAndRoles(t *testing.T) {
	ks, err := OpenKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenKeyStore: %v", err)
	}

	seed := testSeed(9)
	rootKey, path, err := ks.InitRoot("alice", seed, false)
	if err != nil {
		t.Fatalf("InitRoot: %v", err)
	}
	if rootKey != SignerKeyFromSeed(seed) {
		t.Fatalf("unexpected root key %q", rootKey)
	}
	if info, err := os.Stat(path); err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 key file, got %v %v", info, err)
	}
	if _, _, err := ks.InitRoot("alice", seed, false); err == nil {
		t.Fatalf("expected refusal to overwrite root key")
	}

	for _, role := range []string{"signer", "auditor"} {
		if _, _, err := ks.DeriveRole("alice", role, false); err != nil {
			t.Fatalf("DeriveRole(%s): %v", role, err)
		}
	}
	roleSeed, err := DeriveRoleSeed(seed, "signer")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	exported, err := ks.Export("alice", "signer")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exported != SignerKeyFromSeed(roleSeed) {
		t.Fatalf("exported role key does not match derivation")
	}

	if _, _, err := ks.InitRoot("bob", testSeed(3), false); err != nil {
		t.Fatalf("InitRoot: %v", err)
	}
	got, err := ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []KeyEntry{
		{Name: "alice", Roles: []string{"auditor", "signer"}},
		{Name: "bob"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyStoreLoadSeed(t *testing.T) {
	dir := t.TempDir()
	ks := &KeyStore{Directory: dir}
	seed := testSeed(1)
	_, path, err := ks.InitRoot("k", seed, false)
	if err != nil {
		t.Fatalf("InitRoot: %v", err)
	}

	fromFile, err := ks.LoadSeed("", "", "", path)
	if err != nil {
		t.Fatalf("LoadSeed(file): %v", err)
	}
	fromName, err := ks.LoadSeed("", "k", "", "")
	if err != nil {
		t.Fatalf("LoadSeed(name): %v", err)
	}
	fromHex, err := ks.LoadSeed("0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20", "", "", "")
	if err != nil {
		t.Fatalf("LoadSeed(hex): %v", err)
	}
	if string(fromFile) != string(seed) || string(fromName) != string(seed) || string(fromHex) != string(seed) {
		t.Fatalf("seed sources disagree")
	}
	if _, err := ks.LoadSeed("", "", "", ""); err == nil {
		t.Fatalf("expected error with no source")
	}
	if _, err := ks.Seed("../x", ""); err == nil {
		t.Fatalf("expected invalid name error")
	}
	if _, err := (&KeyStore{Directory: filepath.Join(dir, "missing")}).List(); err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}

	s, err := ks.Signer("k", "", Dilithium3)
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if s.Alg() != Dilithium3 {
		t.Fatalf("unexpected alg %q", s.Alg())
	}
}
