package keys

import (
	"crypto/ed25519"
	"errors"
	"io"
	"testing"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/udigest/udigest"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func testSeed(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b + byte(i)
	}
	return seed
}

func message() udigest.Digestable {
	return udigest.Inline().
		Field("subject", udigest.String("hello")).
		Field("count", udigest.Uint(3))
}

func TestSignEd25519_Verifies(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(0))

	sig, err := SignEd25519(message(), "sha256", priv)
	if err != nil {
		t.Fatalf("SignEd25519: %v", err)
	}
	if sig.Alg != Ed25519 || sig.HashAlg != "sha256" {
		t.Fatalf("unexpected signature header: %+v", sig)
	}
	if err := VerifyValue(sig, message()); err != nil {
		t.Fatalf("VerifyValue: %v", err)
	}

	other := udigest.Inline().
		Field("subject", udigest.String("hello")).
		Field("count", udigest.Uint(4))
	if err := VerifyValue(sig, other); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestSignDilithium3_Verifies_SHA3_256(t *testing.T) {
	_, sk, err := GenerateDilithium3Keypair(io.Reader(&deterministicReader{}))
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}

	sig, err := SignDilithium3(message(), "sha3-256", sk)
	if err != nil {
		t.Fatalf("SignDilithium3: %v", err)
	}
	if len(sig.Value) != mode3.SignatureSize {
		t.Fatalf("unexpected signature size: got %d want %d", len(sig.Value), mode3.SignatureSize)
	}
	if len(sig.PublicKey) != mode3.PublicKeySize {
		t.Fatalf("unexpected public key size: got %d want %d", len(sig.PublicKey), mode3.PublicKeySize)
	}
	if err := VerifyValue(sig, message()); err != nil {
		t.Fatalf("VerifyValue: %v", err)
	}
}

func TestSignerFromSeed(t *testing.T) {
	for _, alg := range []string{Ed25519, Dilithium3} {
		a, err := NewSigner(alg, testSeed(7))
		if err != nil {
			t.Fatalf("NewSigner(%s): %v", alg, err)
		}
		b, err := NewSigner(alg, testSeed(7))
		if err != nil {
			t.Fatalf("NewSigner(%s): %v", alg, err)
		}
		if string(a.PublicKey()) != string(b.PublicKey()) {
			t.Fatalf("%s: expected deterministic public key", alg)
		}

		stream := udigest.Batch(udigest.String("a"), udigest.String("b"))
		sig, err := a.Sign(stream, "blake3")
		if err != nil {
			t.Fatalf("%s: Sign: %v", alg, err)
		}
		if err := Verify(sig, stream); err != nil {
			t.Fatalf("%s: Verify: %v", alg, err)
		}
		if err := Verify(sig, udigest.Single(udigest.String("a"))); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("%s: expected ErrBadSignature, got %v", alg, err)
		}
	}
}

func TestSignRejectsBadInput(t *testing.T) {
	if _, err := NewSigner("rsa", testSeed(0)); err == nil {
		t.Fatalf("expected unsupported algorithm error")
	}
	if _, err := NewSigner(Ed25519, []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected seed length error")
	}
	s, err := NewSigner(Ed25519, testSeed(0))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if _, err := s.Sign(udigest.Single(message()), "md5"); err == nil {
		t.Fatalf("expected unsupported hash error")
	}
	if _, err := SignDilithium3(message(), "sha256", nil); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestSignatureIsDigestable(t *testing.T) {
	s, err := NewSigner(Ed25519, testSeed(1))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	sig, err := s.Sign(udigest.Single(message()), "sha256")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	a := udigest.Encode(sig)
	sig.HashAlg = "sha512"
	if string(a) == string(udigest.Encode(sig)) {
		t.Fatalf("expected hash algorithm to change the encoding")
	}
}
