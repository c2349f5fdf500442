package crypto

const (
	// MLKEMPublicKeySize is the size of an ML-KEM-1024 public key in bytes.
	MLKEMPublicKeySize = 1568
	// MLKEMSecretKeySize is the size of an ML-KEM-1024 secret key in bytes.
	MLKEMSecretKeySize = 3168
	// MLKEMCiphertextSize is the size of an ML-KEM-1024 ciphertext in bytes.
	MLKEMCiphertextSize = 1568
	// MLKEMSharedKeySize is the size of the shared secret from ML-KEM-1024 in bytes.
	MLKEMSharedKeySize = 32

	// KeySize is the size of a ChaCha20-Poly1305 key in bytes. Master keys
	// and password-derived keys are this size.
	KeySize = 32
	// NonceSize is the size of a ChaCha20-Poly1305 nonce in bytes.
	NonceSize = 12
	// TagSize is the size of a Poly1305 authentication tag in bytes.
	TagSize = 16

	// SaltSize is the size of the Argon2id salt stored in the volume header.
	SaltSize = 32

	// HashSize is the size of a BLAKE3 digest in bytes.
	HashSize = 32

	// SealedOverhead is the framing overhead of one sealed blob:
	// nonce (12) + tag (16).
	SealedOverhead = NonceSize + TagSize

	// WrappedSecretKeySize is the size of the wrapped KEM secret key
	// package persisted directly after the header:
	// nonce (12) + secret key (3168) + tag (16).
	WrappedSecretKeySize = NonceSize + MLKEMSecretKeySize + TagSize

	// WrappedMasterKeySize is the size of the wrapped master key package
	// carried in the header's user-metadata region:
	// nonce (12) + master key (32) + tag (16).
	WrappedMasterKeySize = NonceSize + KeySize + TagSize
)

// Ciphersuite is the canonical string representation of the algorithm suite.
const Ciphersuite = "ML-KEM-1024:Argon2id:ChaCha20-Poly1305:BLAKE3"
