// Package crypto provides the cryptographic collaborators for the volume
// container: key derivation, hashing, key encapsulation, and authenticated
// encryption. The volume lifecycle manager calls into this package through
// a narrow byte-size contract and never touches the primitives directly.
//
// # Algorithm Suite
//
// The package uses the following cryptographic algorithms:
//
//   - ML-KEM-1024 (NIST FIPS 203): Post-quantum key encapsulation mechanism
//     protecting the volume master key. Provides 256-bit classical security.
//
//   - Argon2id (RFC 9106): Memory-hard key derivation turning the volume
//     password into the key that wraps the KEM secret key. Cost parameters
//     are recorded in the volume header so mounting reproduces the exact
//     derivation.
//
//   - ChaCha20-Poly1305 (RFC 8439): Authenticated encryption for both key
//     wrapping and volume data. Every sealed blob is framed as
//     nonce (12) || ciphertext || tag (16).
//
//   - BLAKE3: Hashing for the header integrity field and the master key
//     fingerprint.
//
// # Critical Security Notes
//
// ChaCha20-Poly1305 nonces MUST be unique for each encryption under the
// same key. [Seal] draws a fresh random nonce on every call; callers must
// never assemble sealed blobs by hand.
//
// Authentication failure from [Open] or [UnwrapKey] is a deliberate,
// caller-facing signal (wrong password, or tampering). It is returned as
// [ErrAuthenticationFailed] so the lifecycle manager can map it onto its
// error taxonomy without string matching.
//
// # Key Management
//
// Functions in this package accept and return raw byte slices. Ownership
// of secret material (zeroization, locked memory) is the caller's
// responsibility; see the secret package.
package crypto
