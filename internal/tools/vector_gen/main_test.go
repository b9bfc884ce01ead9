package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckCommittedVectors(t *testing.T) {
	var out, errOut bytes.Buffer
	dir := filepath.Join("..", "..", "..", "testdata", "conformance", "udigest-1")
	if code := run([]string{"-check", "-dir", dir}, &out, &errOut); code != 0 {
		t.Fatalf("committed vectors are stale (exit %d):\n%s", code, errOut.String())
	}
}

func TestWriteThenCheck(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer
	if code := run([]string{"-dir", dir}, &out, &errOut); code != 0 {
		t.Fatalf("write: exit %d: %s", code, errOut.String())
	}
	if code := run([]string{"-check", "-dir", dir}, &out, &errOut); code != 0 {
		t.Fatalf("check after write: exit %d: %s", code, errOut.String())
	}
	if err := os.WriteFile(filepath.Join(dir, "batch.sha256"), []byte("00\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code := run([]string{"-check", "-dir", dir}, &out, &errOut); code != 1 {
		t.Fatalf("expected stale vector to fail the check, exit %d", code)
	}
}
