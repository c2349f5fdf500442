package pqvault

import (
	"errors"
	"fmt"

	"github.com/pqvault/volume-go/internal/header"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrInvalidParameters is returned when a caller-supplied parameter
	// is rejected before any file or cryptographic work happens.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrVolumeExists is returned by Create when the target path already exists.
	ErrVolumeExists = errors.New("volume already exists")

	// ErrVolumeNotFound is returned by Mount when no file exists at the path.
	ErrVolumeNotFound = errors.New("volume not found")

	// ErrCorruptHeader is returned when the header region cannot be read
	// or is not a well-formed header.
	ErrCorruptHeader = errors.New("corrupt volume header")

	// ErrInvalidMagic is returned when the header markers or version do
	// not identify a volume of this format.
	ErrInvalidMagic = errors.New("not a recognized volume")

	// ErrIntegrityMismatch is returned when a stored hash does not match
	// its recomputed value. The header or key material was modified.
	ErrIntegrityMismatch = errors.New("integrity check failed")

	// ErrWrongPassword is returned by Mount when the password-derived key
	// fails to unwrap the volume's secret key.
	ErrWrongPassword = errors.New("wrong password")

	// ErrCorruptVolume is returned when key material past the password
	// stage fails to unwrap. The password was right; the file is damaged.
	ErrCorruptVolume = errors.New("corrupt volume")

	// ErrDecryptionFailed is returned when volume data fails to
	// authenticate during decryption.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrVolumeClosed is returned when operations are attempted on a
	// closed volume.
	ErrVolumeClosed = errors.New("volume has been closed")
)

// VaultError is implemented by all pqvault errors.
type VaultError interface {
	error
	VaultError() // marker method
}

// ParameterError reports a rejected input parameter.
type ParameterError struct {
	Param  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// Is implements errors.Is for sentinel error matching.
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameters
}

// VaultError implements the VaultError interface.
func (e *ParameterError) VaultError() {}

// HeaderError reports a header that failed to parse, carrying the codec
// error and the file it came from.
type HeaderError struct {
	Path string
	Err  error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("volume %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *HeaderError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching. Codec sentinels
// map onto the public taxonomy.
func (e *HeaderError) Is(target error) bool {
	switch target {
	case ErrCorruptHeader:
		return errors.Is(e.Err, header.ErrCorruptHeader)
	case ErrInvalidMagic:
		return errors.Is(e.Err, header.ErrInvalidMagic)
	case ErrIntegrityMismatch:
		return errors.Is(e.Err, header.ErrIntegrityMismatch)
	}
	return false
}

// VaultError implements the VaultError interface.
func (e *HeaderError) VaultError() {}

// Key unwrap stages, in mount order. The stage that fails determines
// the diagnosis: only the first stage depends on the password.
const (
	StageSecretKey = "secret-key" // password-derived key unwraps the KEM secret key
	StageMasterKey = "master-key" // KEM shared secret unwraps the master key
)

// UnwrapError reports a key-unwrap failure during mount.
type UnwrapError struct {
	Stage string // StageSecretKey or StageMasterKey
	Err   error
}

func (e *UnwrapError) Error() string {
	return fmt.Sprintf("unwrap %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnwrapError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *UnwrapError) Is(target error) bool {
	switch e.Stage {
	case StageSecretKey:
		return target == ErrWrongPassword
	case StageMasterKey:
		return target == ErrCorruptVolume
	}
	return false
}

// VaultError implements the VaultError interface.
func (e *UnwrapError) VaultError() {}

// DecryptionError reports a failure to decrypt volume data. Block is
// the affected block index, or -1 for a standalone payload.
type DecryptionError struct {
	Block int64
	Err   error
}

func (e *DecryptionError) Error() string {
	if e.Block >= 0 {
		return fmt.Sprintf("decrypt block %d: %v", e.Block, e.Err)
	}
	return fmt.Sprintf("decrypt payload: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

// VaultError implements the VaultError interface.
func (e *DecryptionError) VaultError() {}
