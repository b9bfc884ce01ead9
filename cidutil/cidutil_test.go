package cidutil

import (
	"testing"

	"xdao.co/udigest/algo"
	"xdao.co/udigest/udigest"
)

func TestDigestCIDMatchesStreamCID(t *testing.T) {
	d := udigest.Inline().Field("id", udigest.Uint(42))

	got, err := DigestCID(algo.MustLookup("sha256"), d, 0)
	if err != nil {
		t.Fatalf("DigestCID: %v", err)
	}
	want, err := CIDv1RawSHA256CID(udigest.Encode(d))
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID: %v", err)
	}
	if !got.Equals(want) {
		t.Fatalf("got %s want %s", got, want)
	}
	if got.String() != CIDv1RawSHA256(udigest.Encode(d)) {
		t.Fatalf("string form mismatch")
	}
}

func TestDigestCIDAlgorithms(t *testing.T) {
	d := udigest.String("x")
	seen := map[string]bool{}
	for _, name := range []string{"sha256", "sha3-256", "blake3", "blake2b"} {
		c, err := DigestCID(algo.MustLookup(name), d, 0)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if seen[c.String()] {
			t.Fatalf("%s: duplicate CID %s", name, c)
		}
		seen[c.String()] = true
		if c.Prefix().Codec != 0x55 {
			t.Fatalf("%s: codec %#x, want raw", name, c.Prefix().Codec)
		}
	}
	if _, err := DigestCID(algo.MustLookup("sha256"), d, 20); err == nil {
		t.Fatalf("expected invalid size error")
	}
}
