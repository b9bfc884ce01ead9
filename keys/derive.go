package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"xdao.co/udigest/udigest"
)

// roleSeedTag separates role seeds from every other digest of the same
// fields.
const roleSeedTag = "xdao.udigest.keys.role-seed.v1"

// SignerKeyFromSeed returns the signer key string for an Ed25519 seed:
// "ed25519:" + base64(pubkey).
func SignerKeyFromSeed(seed []byte) string {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub)
}

// DeriveRoleSeed deterministically derives a role-specific seed from a root
// seed. The seed is the sha256 digest of the structured value
// {kdf, root_seed, role}, so no choice of role can make two derivations
// share an input.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}
	input := udigest.Inline().
		Tag(roleSeedTag).
		Field("kdf", udigest.String("xdao-udigest-kms-lite-v1")).
		Field("root_seed", udigest.Bytes(rootSeed)).
		Field("role", udigest.String(role))
	sum := udigest.Hash(sha256.New, input)
	return sum[:ed25519.SeedSize], nil
}
