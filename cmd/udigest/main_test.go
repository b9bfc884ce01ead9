package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/udigest/compliance"
	"xdao.co/udigest/doc"
	"xdao.co/udigest/udigest"
)

const seedHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	if code := run(args, &out, &errOut); code != 0 {
		t.Fatalf("udigest %s: exit %d: %s", strings.Join(args, " "), code, errOut.String())
	}
	return strings.TrimSpace(out.String())
}

func runCode(args ...string) (int, string) {
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, errOut.String()
}

func TestHashAgreesAcrossFormats(t *testing.T) {
	dir := t.TempDir()
	j := writeFile(t, dir, "a.json", `{"name":"Alice","tags":["x","y"],"age":30}`)
	y := writeFile(t, dir, "a.yaml", "age: 30\nname: Alice\ntags: [x, y]\n")

	hj := runOK(t, "hash", j)
	hy := runOK(t, "hash", y)
	if hj != hy {
		t.Fatalf("json and yaml digests differ: %s vs %s", hj, hy)
	}

	v, err := doc.Parse(doc.JSON, []byte(`{"age":30,"tags":["x","y"],"name":"Alice"}`), compliance.Strict)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := hex.EncodeToString(udigest.Hash(sha256.New, v)); hj != want {
		t.Fatalf("hash %s, want %s", hj, want)
	}

	if enc := runOK(t, "encode", j); enc != hex.EncodeToString(udigest.Encode(v)) {
		t.Fatalf("encode output is not the canonical stream")
	}
}

func TestHashOptions(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `[1,2]`)
	b := writeFile(t, dir, "b.json", `"b"`)

	single := runOK(t, "hash", a)
	batch := runOK(t, "hash", a, b)
	tagged := runOK(t, "hash", "--tag", "app.v1", a)
	if single == batch || single == tagged {
		t.Fatalf("expected batch and tagged digests to differ from the single digest")
	}
	if got := runOK(t, "hash", "--alg", "shake256", "--size", "16", a); len(got) != 32 {
		t.Fatalf("expected 16 byte digest, got %q", got)
	}
	if got := runOK(t, "hash", "--alg", "blake3", a); len(got) != 64 {
		t.Fatalf("expected 32 byte blake3 digest, got %q", got)
	}

	if code, _ := runCode("hash", "--alg", "md5", a); code != 2 {
		t.Fatalf("unknown alg: exit %d, want 2", code)
	}
	if code, _ := runCode("hash", "--alg", "sha256", "--size", "7", a); code != 1 {
		t.Fatalf("bad size: exit %d, want 1", code)
	}
	float := writeFile(t, dir, "f.json", `{"x":1.5}`)
	if code, _ := runCode("hash", float); code != 1 {
		t.Fatalf("strict float: exit %d, want 1", code)
	}
	runOK(t, "hash", "--mode", "permissive", float)
	if code, _ := runCode("nope"); code != 2 {
		t.Fatalf("unknown command: exit %d, want 2", code)
	}
}

func TestStoreGetAndCID(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "cas")
	in := writeFile(t, dir, "v.json", `{"k":"v"}`)

	id := runOK(t, "store", "--localfs-dir", store, in)
	if cid := runOK(t, "cid", in); cid != id {
		t.Fatalf("store CID %s, cid command %s", id, cid)
	}
	if got, want := runOK(t, "get", "--localfs-dir", store, id), runOK(t, "encode", in); got != want {
		t.Fatalf("get returned %s, want %s", got, want)
	}
	if code, _ := runCode("get", "--localfs-dir", store, "not-a-cid"); code != 2 {
		t.Fatalf("bad CID: exit %d, want 2", code)
	}

	bundlePath := filepath.Join(dir, "out.tar")
	runOK(t, "bundle", "export", "--localfs-dir", store, "--out", bundlePath, "--all")
	other := filepath.Join(dir, "cas2")
	imported := runOK(t, "bundle", "import", "--localfs-dir", other, "--require-index", bundlePath)
	if !strings.HasPrefix(imported, "Imported 1 blocks") {
		t.Fatalf("unexpected import output %q", imported)
	}
	runOK(t, "get", "--localfs-dir", other, id)
}

func TestSignVerify(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "v.yaml", "a: 1\nb: [true, null]\n")

	for _, alg := range []string{"ed25519", "dilithium3"} {
		sig := runOK(t, "sign", "--alg", alg, "--hash", "sha3-256", "--seed-hex", seedHex, in)
		sigPath := writeFile(t, dir, alg+".json", sig)
		if got := runOK(t, "verify", "--sig", sigPath, in); got != "OK" {
			t.Fatalf("%s: verify printed %q", alg, got)
		}

		tampered := writeFile(t, dir, "t.yaml", "a: 2\nb: [true, null]\n")
		if code, errOut := runCode("verify", "--sig", sigPath, tampered); code != 1 || !strings.Contains(errOut, "INVALID") {
			t.Fatalf("%s: tampered verify exit %d: %s", alg, code, errOut)
		}
	}
}

func TestKeyCommands(t *testing.T) {
	keyDir := t.TempDir()
	runOK(t, "key", "init", "--key-dir", keyDir, "--name", "alice", "--seed-hex", seedHex)
	runOK(t, "key", "derive", "--key-dir", keyDir, "--from", "alice", "--role", "signer")

	if got := runOK(t, "key", "list", "--key-dir", keyDir); got != "alice\tsigner" {
		t.Fatalf("key list printed %q", got)
	}
	exported := runOK(t, "key", "export", "--key-dir", keyDir, "--name", "alice")
	if !strings.HasPrefix(exported, "ed25519:") {
		t.Fatalf("unexpected export %q", exported)
	}

	in := writeFile(t, t.TempDir(), "v.json", `1`)
	fromStore := runOK(t, "sign", "--key-dir", keyDir, "--signer", "alice", in)
	fromSeed := runOK(t, "sign", "--seed-hex", seedHex, in)
	if fromStore != fromSeed {
		t.Fatalf("stored key and seed signatures differ")
	}
	sigPath := writeFile(t, t.TempDir(), "sig.json", fromStore)
	if got := runOK(t, "verify", "--sig", sigPath, "--signer-key", exported, in); got != "OK" {
		t.Fatalf("verify with exported key printed %q", got)
	}
	role := runOK(t, "key", "export", "--key-dir", keyDir, "--name", "alice", "--role", "signer")
	if code, _ := runCode("verify", "--sig", sigPath, "--signer-key", role, in); code != 1 {
		t.Fatalf("verify against another signer key: exit %d, want 1", code)
	}
	if code, _ := runCode("key", "init", "--key-dir", keyDir, "--name", "alice", "--seed-hex", seedHex); code != 1 {
		t.Fatalf("re-init without --force: exit %d, want 1", code)
	}
}

func TestAlgorithms(t *testing.T) {
	out := runOK(t, "algorithms")
	for _, name := range []string{"sha256", "blake2b", "blake3", "shake256"} {
		if !strings.Contains(out, name+"\t") {
			t.Fatalf("algorithms output missing %s:\n%s", name, out)
		}
	}
}
