package pqvault

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pqvault/volume-go/internal/crypto"
	"github.com/pqvault/volume-go/internal/header"
	"github.com/pqvault/volume-go/internal/secret"
)

const (
	// BlockSize is the plaintext capacity of one data block.
	BlockSize = 4096

	// DataOffset is the file offset where the block region begins: the
	// header followed by the wrapped KEM secret key package.
	DataOffset = header.Size + crypto.WrappedSecretKeySize

	// blockRecordSize is the on-disk size of one block record:
	// length field (4) + nonce (12) + ciphertext (4096) + tag (16).
	blockRecordSize = blockLenSize + crypto.NonceSize + BlockSize + crypto.TagSize

	blockLenSize = 4
)

// Volume is an open volume session. It owns the file handle and the
// unwrapped master key; both are released by Close. All methods are
// safe for concurrent use.
type Volume struct {
	mu     sync.RWMutex
	f      *os.File
	path   string
	hdr    *header.Header
	rawHdr []byte // serialized header as last written to disk
	master *secret.Buffer
	blocks uint64
	dirty  atomic.Bool
	closed bool
}

func validatePassword(password []byte, minLen int) error {
	if len(password) == 0 {
		return &ParameterError{Param: "password", Reason: "must not be empty"}
	}
	if len(password) < minLen {
		return &ParameterError{Param: "password", Reason: fmt.Sprintf("shorter than minimum length %d", minLen)}
	}
	return nil
}

// Create makes a new volume file at path and returns an open session on
// it. The file is created exclusively; an existing file at path is
// never touched. sizeBytes is the data region capacity; the file is
// allocated sparsely, so unwritten blocks occupy no disk space.
func Create(path string, password []byte, sizeBytes uint64, opts ...Option) (*Volume, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if path == "" {
		return nil, &ParameterError{Param: "path", Reason: "must not be empty"}
	}
	if err := validatePassword(password, cfg.minPasswordLength); err != nil {
		return nil, err
	}
	if sizeBytes == 0 {
		return nil, &ParameterError{Param: "size", Reason: "must be positive"}
	}
	if len(cfg.label) > header.MaxLabelSize {
		return nil, &ParameterError{Param: "label", Reason: fmt.Sprintf("longer than %d bytes", header.MaxLabelSize)}
	}
	if err := cfg.profile.Validate(); err != nil {
		return nil, &ParameterError{Param: "profile", Reason: err.Error()}
	}

	// O_EXCL makes concurrent creates at the same path race-free: the
	// kernel picks exactly one winner.
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("volume %s: %w", path, ErrVolumeExists)
		}
		return nil, fmt.Errorf("create volume file: %w", err)
	}

	vol, err := initialize(f, path, password, sizeBytes, cfg)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return vol, nil
}

// initialize writes the key hierarchy and header into a freshly created
// file. Intermediate secrets are zeroed before return on every path.
func initialize(f *os.File, path string, password []byte, sizeBytes uint64, cfg *volumeConfig) (*Volume, error) {
	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}

	passwordKey, err := crypto.DeriveKey(password, salt, cfg.profile)
	if err != nil {
		return nil, fmt.Errorf("derive password key: %w", err)
	}
	defer passwordKey.Close()

	keypair, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	defer secret.Zero(keypair.Secret)

	wrappedSK, err := crypto.WrapKey(passwordKey.Bytes(), keypair.Secret)
	if err != nil {
		return nil, fmt.Errorf("wrap secret key: %w", err)
	}

	sharedSecret, kemCiphertext, err := crypto.Encapsulate(keypair.Public)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(sharedSecret)

	masterKey, err := crypto.NewKey()
	if err != nil {
		return nil, err
	}

	wrappedMaster, err := crypto.WrapKey(sharedSecret, masterKey)
	if err != nil {
		secret.Zero(masterKey)
		return nil, fmt.Errorf("wrap master key: %w", err)
	}

	masterHash := crypto.Sum256(masterKey)

	metadata := make([]byte, header.MetadataSize)
	copy(metadata, wrappedMaster.Marshal())
	copy(metadata[header.WrappedKeyOffset:], cfg.label)

	rawHdr, err := header.Create(header.Params{
		VolumeSize:     sizeBytes,
		Salt:           salt,
		KDFMemory:      cfg.profile.Memory,
		KDFTime:        cfg.profile.Time,
		KDFParallelism: cfg.profile.Parallelism,
		KEMCiphertext:  kemCiphertext,
		MasterKeyHash:  masterHash[:],
		Flags:          cfg.flags,
		UserMetadata:   metadata,
	})
	if err != nil {
		secret.Zero(masterKey)
		return nil, &HeaderError{Path: path, Err: err}
	}

	if _, err := f.WriteAt(rawHdr, 0); err != nil {
		secret.Zero(masterKey)
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := f.WriteAt(wrappedSK.Marshal(), header.Size); err != nil {
		secret.Zero(masterKey)
		return nil, fmt.Errorf("write wrapped secret key: %w", err)
	}
	if err := f.Truncate(DataOffset + int64safe(sizeBytes)); err != nil {
		secret.Zero(masterKey)
		return nil, fmt.Errorf("allocate data region: %w", err)
	}
	if err := f.Sync(); err != nil {
		secret.Zero(masterKey)
		return nil, fmt.Errorf("sync volume file: %w", err)
	}

	if cfg.keystore != nil {
		id := hex.EncodeToString(salt)
		if err := cfg.keystore.Store(id, wrappedMaster.Marshal()); err != nil {
			secret.Zero(masterKey)
			return nil, fmt.Errorf("escrow wrapped master key: %w", err)
		}
	}

	master, err := secret.NewFromBytes(masterKey)
	if err != nil {
		secret.Zero(masterKey)
		return nil, err
	}

	hdr, err := header.Parse(rawHdr)
	if err != nil {
		master.Close()
		return nil, &HeaderError{Path: path, Err: err}
	}

	return &Volume{
		f:      f,
		path:   path,
		hdr:    hdr,
		rawHdr: rawHdr,
		master: master,
		blocks: sizeBytes / blockRecordSize,
	}, nil
}

// int64safe converts a size to int64 for file offsets, saturating
// instead of wrapping. Sizes near the int64 limit fail later at
// Truncate with a filesystem error.
func int64safe(n uint64) int64 {
	if n > 1<<62 {
		return 1 << 62
	}
	return int64(n)
}

// Mount opens an existing volume file with the given password and
// returns an open session. The password only unlocks the first stage of
// the key hierarchy, so a failure there is diagnosed as ErrWrongPassword
// while later failures indicate file damage.
func Mount(path string, password []byte, opts ...Option) (*Volume, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if path == "" {
		return nil, &ParameterError{Param: "path", Reason: "must not be empty"}
	}
	if len(password) == 0 {
		return nil, &ParameterError{Param: "password", Reason: "must not be empty"}
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("volume %s: %w", path, ErrVolumeNotFound)
		}
		return nil, fmt.Errorf("open volume file: %w", err)
	}

	vol, err := unlock(f, path, password)
	if err != nil {
		f.Close()
		return nil, err
	}
	return vol, nil
}

// unlock reads and validates the header, then walks the key hierarchy
// down to the master key.
func unlock(f *os.File, path string, password []byte) (*Volume, error) {
	rawHdr := make([]byte, header.Size)
	if _, err := f.ReadAt(rawHdr, 0); err != nil {
		return nil, fmt.Errorf("volume %s: read header: %w", path, ErrCorruptHeader)
	}

	hdr, err := header.Parse(rawHdr)
	if err != nil {
		return nil, &HeaderError{Path: path, Err: err}
	}

	rawWrappedSK := make([]byte, crypto.WrappedSecretKeySize)
	if _, err := f.ReadAt(rawWrappedSK, header.Size); err != nil {
		return nil, fmt.Errorf("volume %s: secret key region truncated: %w", path, ErrCorruptVolume)
	}
	wrappedSK, err := crypto.ParseKeyWrapPackage(rawWrappedSK, crypto.WrappedSecretKeySize)
	if err != nil {
		return nil, fmt.Errorf("volume %s: %v: %w", path, err, ErrCorruptVolume)
	}

	passwordKey, err := crypto.DeriveKey(password, hdr.Salt, hdr.KDFParams())
	if err != nil {
		return nil, fmt.Errorf("derive password key: %w", err)
	}
	defer passwordKey.Close()

	secretKey, err := wrappedSK.Unwrap(passwordKey.Bytes())
	if err != nil {
		return nil, &UnwrapError{Stage: StageSecretKey, Err: err}
	}
	defer secret.Zero(secretKey)

	sharedSecret, err := crypto.Decapsulate(secretKey, hdr.KEMCiphertext)
	if err != nil {
		return nil, fmt.Errorf("volume %s: %v: %w", path, err, ErrCorruptVolume)
	}
	defer secret.Zero(sharedSecret)

	wrappedMaster, err := crypto.ParseKeyWrapPackage(hdr.WrappedMasterKey(), crypto.WrappedMasterKeySize)
	if err != nil {
		return nil, fmt.Errorf("volume %s: %v: %w", path, err, ErrCorruptVolume)
	}
	masterKey, err := wrappedMaster.Unwrap(sharedSecret)
	if err != nil {
		return nil, &UnwrapError{Stage: StageMasterKey, Err: err}
	}

	masterHash := crypto.Sum256(masterKey)
	if subtle.ConstantTimeCompare(masterHash[:], hdr.MasterKeyHash) != 1 {
		secret.Zero(masterKey)
		return nil, fmt.Errorf("volume %s: master key hash: %w", path, ErrIntegrityMismatch)
	}

	master, err := secret.NewFromBytes(masterKey)
	if err != nil {
		secret.Zero(masterKey)
		return nil, err
	}

	return &Volume{
		f:      f,
		path:   path,
		hdr:    hdr,
		rawHdr: rawHdr,
		master: master,
		blocks: hdr.VolumeSize / blockRecordSize,
	}, nil
}

// Path returns the volume file path.
func (v *Volume) Path() string {
	return v.path
}

// Label returns the volume label.
func (v *Volume) Label() string {
	return v.hdr.Label()
}

// Encrypt seals plaintext under the volume's master key and returns a
// standalone sealed blob (nonce, ciphertext, tag). aad is authenticated
// but not stored; Decrypt must receive the same bytes, or nil for none.
// The blob is not tied to any block slot; use WriteBlock for the data
// region.
func (v *Volume) Encrypt(plaintext, aad []byte) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return nil, ErrVolumeClosed
	}

	sealed, err := crypto.Seal(v.master.Bytes(), plaintext, aad)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload: %w", err)
	}
	return sealed, nil
}

// Decrypt opens a sealed blob produced by Encrypt with the same aad.
func (v *Volume) Decrypt(sealed, aad []byte) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return nil, ErrVolumeClosed
	}

	plaintext, err := crypto.Open(v.master.Bytes(), sealed, aad)
	if err != nil {
		return nil, &DecryptionError{Block: -1, Err: err}
	}
	return plaintext, nil
}

// Close drains in-flight operations, refreshes the header's modified
// timestamp if the volume was written, zeroizes the master key, and
// releases the file handle. Close is idempotent; operations after Close
// return ErrVolumeClosed.
func (v *Volume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true

	var firstErr error
	if v.dirty.Load() {
		if updated, err := header.UpdateTimestamp(v.rawHdr); err != nil {
			firstErr = &HeaderError{Path: v.path, Err: err}
		} else if _, err := v.f.WriteAt(updated, 0); err != nil {
			firstErr = fmt.Errorf("write header: %w", err)
		} else {
			v.rawHdr = updated
			if err := v.f.Sync(); err != nil {
				firstErr = fmt.Errorf("sync volume file: %w", err)
			}
		}
	}

	if err := v.master.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := v.f.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close volume file: %w", err)
	}
	return firstErr
}
