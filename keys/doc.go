// Package keys signs and verifies digests of structured values.
//
// API stability:
//
// Stable (SemVer-protected):
//   - Signing and verification over value digests, signer-key formatting and
//     role-seed derivation.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and related functions).
//     These are local-first utilities and are not part of the long-term format contract.
package keys
