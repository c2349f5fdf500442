package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/pqvault/volume-go/internal/secret"
)

// KDFParams are the Argon2id cost parameters recorded in the volume
// header. Memory is in KiB, matching both the header field and the
// argon2 API.
type KDFParams struct {
	Memory      uint32 // KiB
	Time        uint32 // iterations
	Parallelism uint32 // lanes
}

// Security profiles. Memory doubles per step; unlock latency on typical
// hardware runs from ~0.5s (Low) to ~8s (Paranoid).
var (
	// ProfileLow: 256 MiB, 3 iterations. Fast unlock, suitable for testing.
	ProfileLow = KDFParams{Memory: 256 * 1024, Time: 3, Parallelism: 4}

	// ProfileMedium: 512 MiB, 5 iterations. Balanced, recommended for
	// most users.
	ProfileMedium = KDFParams{Memory: 512 * 1024, Time: 5, Parallelism: 4}

	// ProfileHigh: 1 GiB, 10 iterations. The default.
	ProfileHigh = KDFParams{Memory: 1024 * 1024, Time: 10, Parallelism: 4}

	// ProfileParanoid: 2 GiB, 20 iterations. Maximum security.
	ProfileParanoid = KDFParams{Memory: 2048 * 1024, Time: 20, Parallelism: 4}
)

// Validate reports whether the parameters are usable. Argon2 requires
// memory of at least 8 KiB per lane, at least one iteration, and the
// parallelism must fit the header's field and argon2's uint8 lane count.
func (p KDFParams) Validate() error {
	if p.Time == 0 {
		return fmt.Errorf("%w: time cost must be positive", ErrInvalidKDFParams)
	}
	if p.Parallelism == 0 || p.Parallelism > 255 {
		return fmt.Errorf("%w: parallelism %d out of range [1,255]", ErrInvalidKDFParams, p.Parallelism)
	}
	if p.Memory < 8*p.Parallelism {
		return fmt.Errorf("%w: memory %d KiB below minimum %d KiB", ErrInvalidKDFParams, p.Memory, 8*p.Parallelism)
	}
	return nil
}

// DeriveKey derives a KeySize-byte key from the password using Argon2id
// and returns it in a guarded buffer owned by the caller, who must Close
// it. The salt must be exactly SaltSize bytes. This is deliberately slow
// and memory-hard; expect hundreds of milliseconds to seconds depending
// on the profile.
func DeriveKey(password, salt []byte, params KDFParams) (*secret.Buffer, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", ErrInvalidKDFParams)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSaltSize, len(salt), SaltSize)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	key := argon2.IDKey(password, salt, params.Time, params.Memory, uint8(params.Parallelism), KeySize)
	return secret.NewFromBytes(key)
}

// NewSalt returns a fresh random SaltSize-byte salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// NewKey returns a fresh random KeySize-byte key. Used for master key
// generation at volume creation.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}
