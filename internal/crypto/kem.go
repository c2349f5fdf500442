package crypto

import (
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
)

// randReader is the random source used for keypair generation and
// encapsulation. It defaults to nil (which uses crypto/rand) but can be
// overridden for testing.
var randReader io.Reader

// Keypair holds a raw ML-KEM-1024 keypair. The secret key is only ever
// held transiently: it is wrapped under the password-derived key at
// volume creation and reconstructed at mount.
type Keypair struct {
	// Public is the raw ML-KEM-1024 public key bytes.
	Public []byte
	// Secret is the raw ML-KEM-1024 secret key bytes.
	Secret []byte
}

// GenerateKeypair creates a new ML-KEM-1024 keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := mlkem1024.GenerateKeyPair(randReader)
	if err != nil {
		return nil, fmt.Errorf("generate ML-KEM-1024 keypair: %w", err)
	}

	// MarshalBinary never fails for valid keys from GenerateKeyPair
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &Keypair{
		Public: pubBytes,
		Secret: privBytes,
	}, nil
}

// Encapsulate generates a fresh shared secret and its KEM ciphertext
// against the given public key. Volume creation uses the shared secret
// to wrap the master key and persists the ciphertext in the header.
func Encapsulate(publicKey []byte) (sharedSecret, ciphertext []byte, err error) {
	if len(publicKey) != MLKEMPublicKeySize {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPublicKeySize, len(publicKey), MLKEMPublicKeySize)
	}

	var pub mlkem1024.PublicKey
	pub.Unpack(publicKey)

	ciphertext = make([]byte, MLKEMCiphertextSize)
	sharedSecret = make([]byte, MLKEMSharedKeySize)
	pub.EncapsulateTo(ciphertext, sharedSecret, nil)

	return sharedSecret, ciphertext, nil
}

// Decapsulate recovers the shared secret from a KEM ciphertext using the
// secret key. Mounting uses it to recover the key that wraps the master
// key.
func Decapsulate(secretKey, ciphertext []byte) ([]byte, error) {
	if len(secretKey) != MLKEMSecretKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSecretKeySize, len(secretKey), MLKEMSecretKeySize)
	}
	if len(ciphertext) != MLKEMCiphertextSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidCiphertextSize, len(ciphertext), MLKEMCiphertextSize)
	}

	var priv mlkem1024.PrivateKey
	if err := priv.Unpack(secretKey); err != nil {
		return nil, fmt.Errorf("unpack ML-KEM-1024 secret key: %w", err)
	}

	sharedSecret := make([]byte, MLKEMSharedKeySize)
	priv.DecapsulateTo(sharedSecret, ciphertext)

	return sharedSecret, nil
}
