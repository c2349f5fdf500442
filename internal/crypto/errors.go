package crypto

import "errors"

var (
	// ErrAuthenticationFailed is returned when an AEAD open fails: wrong
	// key, or the blob was tampered with. The two are indistinguishable
	// at this layer.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidKeySize is returned when a key is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidSaltSize is returned when a salt is not exactly SaltSize bytes.
	ErrInvalidSaltSize = errors.New("invalid salt size")

	// ErrInvalidSecretKeySize is returned when a KEM secret key has the
	// wrong size.
	ErrInvalidSecretKeySize = errors.New("invalid secret key size")

	// ErrInvalidPublicKeySize is returned when a KEM public key has the
	// wrong size.
	ErrInvalidPublicKeySize = errors.New("invalid public key size")

	// ErrInvalidCiphertextSize is returned when a KEM ciphertext has the
	// wrong size.
	ErrInvalidCiphertextSize = errors.New("invalid ciphertext size")

	// ErrSealedTooShort is returned when a sealed blob is shorter than
	// nonce + tag.
	ErrSealedTooShort = errors.New("sealed data too short")

	// ErrInvalidPackageSize is returned when a key-wrap package does not
	// have its expected fixed size.
	ErrInvalidPackageSize = errors.New("invalid key-wrap package size")

	// ErrInvalidKDFParams is returned when Argon2id cost parameters are
	// out of range.
	ErrInvalidKDFParams = errors.New("invalid key derivation parameters")
)
