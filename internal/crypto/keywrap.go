package crypto

import "fmt"

// KeyWrapPackage is one wrapped key: the output of a single authenticated
// encryption call, split into its fixed-position parts. Two packages
// exist per volume: the wrapped KEM secret key (WrappedSecretKeySize
// bytes) stored after the header, and the wrapped master key
// (WrappedMasterKeySize bytes) stored inside the header's user-metadata
// region. Packages are created at volume creation, consumed at mount,
// and never mutated.
type KeyWrapPackage struct {
	Nonce      []byte // NonceSize bytes
	Ciphertext []byte // same length as the wrapped key material
	Tag        []byte // TagSize bytes
}

// WrapKey seals keyMaterial under the key-encryption key and returns the
// resulting package.
func WrapKey(kek, keyMaterial []byte) (*KeyWrapPackage, error) {
	sealed, err := Seal(kek, keyMaterial, nil)
	if err != nil {
		return nil, err
	}
	return splitSealed(sealed), nil
}

// Unwrap recovers the wrapped key material. Authentication failure is
// reported as ErrAuthenticationFailed.
func (p *KeyWrapPackage) Unwrap(kek []byte) ([]byte, error) {
	return Open(kek, p.Marshal(), nil)
}

// Marshal returns the wire form: nonce || ciphertext || tag.
func (p *KeyWrapPackage) Marshal() []byte {
	out := make([]byte, 0, len(p.Nonce)+len(p.Ciphertext)+len(p.Tag))
	out = append(out, p.Nonce...)
	out = append(out, p.Ciphertext...)
	out = append(out, p.Tag...)
	return out
}

// Size returns the total wire size of the package.
func (p *KeyWrapPackage) Size() int {
	return len(p.Nonce) + len(p.Ciphertext) + len(p.Tag)
}

// ParseKeyWrapPackage splits a wire-form package into its parts.
// expectedSize pins the total length; both volume packages have fixed
// sizes, so any deviation is corruption.
func ParseKeyWrapPackage(blob []byte, expectedSize int) (*KeyWrapPackage, error) {
	if len(blob) != expectedSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPackageSize, len(blob), expectedSize)
	}
	if expectedSize < SealedOverhead {
		return nil, fmt.Errorf("%w: expected size %d below minimum %d", ErrInvalidPackageSize, expectedSize, SealedOverhead)
	}
	return splitSealed(blob), nil
}

func splitSealed(sealed []byte) *KeyWrapPackage {
	p := &KeyWrapPackage{
		Nonce:      make([]byte, NonceSize),
		Ciphertext: make([]byte, len(sealed)-SealedOverhead),
		Tag:        make([]byte, TagSize),
	}
	copy(p.Nonce, sealed[:NonceSize])
	copy(p.Ciphertext, sealed[NonceSize:len(sealed)-TagSize])
	copy(p.Tag, sealed[len(sealed)-TagSize:])
	return p
}
