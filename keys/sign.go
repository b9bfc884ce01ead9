package keys

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/udigest/algo"
	"xdao.co/udigest/udigest"
	"xdao.co/udigest/wire"
)

// Signature algorithms.
const (
	Ed25519    = "ed25519"
	Dilithium3 = "dilithium3"
)

const signatureTag = "xdao.udigest.keys.signature.v1"

// ErrBadSignature is returned by Verify when a signature does not match.
var ErrBadSignature = errors.New("signature did not verify")

// Signature is a signature over the digest of a value. It is digestable
// itself, so signatures can be embedded in signed values.
type Signature struct {
	Alg       string `json:"alg"`
	HashAlg   string `json:"hash_alg"`
	PublicKey []byte `json:"public_key"`
	Value     []byte `json:"signature"`
}

func (s Signature) UnambiguouslyEncode(v *wire.Value) {
	st := v.Struct().WithTag([]byte(signatureTag))
	st.Field("alg").Text(s.Alg)
	st.Field("hash_alg").Text(s.HashAlg)
	st.Field("public_key").Bytes(s.PublicKey)
	st.Field("signature").Bytes(s.Value)
	st.Finish()
}

func digestFor(hashAlg string, s udigest.Stream) ([]byte, error) {
	a, err := algo.Lookup(hashAlg)
	if err != nil {
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
	return a.Sum(s, 0)
}

// Signer holds a private key of either algorithm.
type Signer struct {
	alg string
	ed  ed25519.PrivateKey
	dil *mode3.PrivateKey
	pub []byte
}

// NewSigner expands a 32 byte seed into a key pair for alg.
func NewSigner(alg string, seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	switch alg {
	case Ed25519:
		priv := ed25519.NewKeyFromSeed(seed)
		return &Signer{alg: alg, ed: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
	case Dilithium3:
		var s [mode3.SeedSize]byte
		copy(s[:], seed)
		pk, sk := mode3.NewKeyFromSeed(&s)
		return &Signer{alg: alg, dil: sk, pub: pk.Bytes()}, nil
	}
	return nil, fmt.Errorf("unsupported signature algorithm: %q", alg)
}

func (s *Signer) Alg() string { return s.alg }

// PublicKey returns the encoded public key.
func (s *Signer) PublicKey() []byte { return append([]byte(nil), s.pub...) }

// Sign signs the hashAlg digest of everything stream writes.
func (s *Signer) Sign(stream udigest.Stream, hashAlg string) (Signature, error) {
	digest, err := digestFor(hashAlg, stream)
	if err != nil {
		return Signature{}, err
	}
	var sig []byte
	switch s.alg {
	case Ed25519:
		sig = ed25519.Sign(s.ed, digest)
	case Dilithium3:
		sig = make([]byte, mode3.SignatureSize)
		mode3.SignTo(s.dil, digest, sig)
	}
	return Signature{Alg: s.alg, HashAlg: hashAlg, PublicKey: s.PublicKey(), Value: sig}, nil
}

// SignEd25519 signs the hashAlg digest of d.
func SignEd25519(d udigest.Digestable, hashAlg string, privateKey ed25519.PrivateKey) (Signature, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return Signature{}, fmt.Errorf("missing private key")
	}
	s := &Signer{alg: Ed25519, ed: privateKey, pub: privateKey.Public().(ed25519.PublicKey)}
	return s.Sign(udigest.Single(d), hashAlg)
}

// SignDilithium3 signs the hashAlg digest of d.
func SignDilithium3(d udigest.Digestable, hashAlg string, privateKey *mode3.PrivateKey) (Signature, error) {
	if privateKey == nil {
		return Signature{}, fmt.Errorf("missing private key")
	}
	pub := privateKey.Public().(*mode3.PublicKey)
	s := &Signer{alg: Dilithium3, dil: privateKey, pub: pub.Bytes()}
	return s.Sign(udigest.Single(d), hashAlg)
}

// Verify checks sig against the digest of everything stream writes.
func Verify(sig Signature, stream udigest.Stream) error {
	digest, err := digestFor(sig.HashAlg, stream)
	if err != nil {
		return err
	}
	switch sig.Alg {
	case Ed25519:
		if len(sig.PublicKey) != ed25519.PublicKeySize {
			return fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(sig.PublicKey))
		}
		if !ed25519.Verify(ed25519.PublicKey(sig.PublicKey), digest, sig.Value) {
			return ErrBadSignature
		}
	case Dilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(sig.PublicKey); err != nil {
			return fmt.Errorf("dilithium3 public key: %w", err)
		}
		if !mode3.Verify(&pk, digest, sig.Value) {
			return ErrBadSignature
		}
	default:
		return fmt.Errorf("unsupported signature algorithm: %q", sig.Alg)
	}
	return nil
}

// VerifyValue is Verify for a single value.
func VerifyValue(sig Signature, d udigest.Digestable) error {
	return Verify(sig, udigest.Single(d))
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}
