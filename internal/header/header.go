// Package header implements the fixed 2048-byte volume header record:
// serialization, parsing, and the embedded BLAKE3 integrity hash. The
// codec is pure and stateless; it never touches key material beyond
// copying opaque byte fields.
//
// Layout (all integers big-endian):
//
//	offset  size  field
//	0       8     header magic "PQVOLUME"
//	8       2     format version (0x0100)
//	10      2     declared header size (2048)
//	12      4     flags
//	16      8     volume size in bytes
//	24      8     created timestamp (unix seconds)
//	32      8     modified timestamp (unix seconds)
//	40      32    Argon2id salt
//	72      4     KDF memory cost (KiB)
//	76      4     KDF time cost (iterations)
//	80      4     KDF parallelism
//	84      4     reserved
//	88      1568  KEM ciphertext (ML-KEM-1024)
//	1656    32    master key BLAKE3 hash
//	1688    32    header BLAKE3 hash over bytes [0,1688)
//	1720    64    reserved
//	1784    256   user metadata (wrapped master key + label)
//	2040    8     footer magic "PQVOLEND"
package header

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/pqvault/volume-go/internal/crypto"
)

// Size is the exact serialized length of a volume header.
const Size = 2048

// Version is the current on-disk format version.
const Version = 0x0100

// Field offsets. Each field occupies a fixed byte range; ranges never
// overlap (verified by test).
const (
	offMagic       = 0
	offVersion     = 8
	offHeaderSize  = 10
	offFlags       = 12
	offVolumeSize  = 16
	offCreated     = 24
	offModified    = 32
	offSalt        = 40
	offKDFMemory   = 72
	offKDFTime     = 76
	offKDFParallel = 80
	offReserved1   = 84
	offKEMCipher   = 88
	offMasterHash  = 1656
	offHeaderHash  = 1688
	offReserved2   = 1720
	offMetadata    = 1784
	offFooter      = 2040
)

// Field sizes.
const (
	sizeMagic      = 8
	sizeSalt       = crypto.SaltSize
	sizeKEMCipher  = crypto.MLKEMCiphertextSize
	sizeMasterHash = crypto.HashSize
	sizeHeaderHash = crypto.HashSize

	// MetadataSize is the user-metadata region capacity. The first
	// WrappedKeyOffset bytes hold the wrapped master key package; the
	// remainder carries the NUL-padded volume label.
	MetadataSize = 256

	// WrappedKeyOffset is where the label begins inside user metadata.
	WrappedKeyOffset = crypto.WrappedMasterKeySize

	// MaxLabelSize is the label capacity in bytes.
	MaxLabelSize = MetadataSize - WrappedKeyOffset
)

var (
	magicHeader = [sizeMagic]byte{'P', 'Q', 'V', 'O', 'L', 'U', 'M', 'E'}
	magicFooter = [sizeMagic]byte{'P', 'Q', 'V', 'O', 'L', 'E', 'N', 'D'}
)

// Volume flag bits. Compression and hidden-volume behavior are reserved
// for future format versions; the bits exist so headers carrying them
// stay parseable.
const (
	FlagNone       uint32 = 0x00000000
	FlagCompressed uint32 = 0x00000001
	FlagHidden     uint32 = 0x00000002
	FlagKeyfile    uint32 = 0x00000004
)

var (
	// ErrCorruptHeader is returned when the buffer is not exactly Size bytes.
	ErrCorruptHeader = errors.New("corrupt header")

	// ErrInvalidMagic is returned when a marker, the version, or the
	// declared size field does not match the format constants.
	ErrInvalidMagic = errors.New("invalid header magic")

	// ErrIntegrityMismatch is returned when the recomputed header hash
	// does not equal the embedded one.
	ErrIntegrityMismatch = errors.New("header integrity mismatch")

	// ErrSizeMismatch is returned by Create when a fixed-size input field
	// has the wrong length.
	ErrSizeMismatch = errors.New("field size mismatch")

	// ErrMetadataTooLarge is returned by Create when user metadata
	// exceeds the region capacity. Oversize metadata is rejected, never
	// truncated: the region carries key material.
	ErrMetadataTooLarge = errors.New("user metadata too large")
)

// Header holds the parsed fields of a validated volume header.
type Header struct {
	Version        uint16
	Flags          uint32
	VolumeSize     uint64
	Created        time.Time
	Modified       time.Time
	Salt           []byte // sizeSalt bytes
	KDFMemory      uint32 // KiB
	KDFTime        uint32
	KDFParallelism uint32
	KEMCiphertext  []byte // sizeKEMCipher bytes
	MasterKeyHash  []byte // sizeMasterHash bytes
	UserMetadata   []byte // MetadataSize bytes
}

// WrappedMasterKey returns the wrapped master key package carried in the
// first WrappedKeyOffset bytes of the user-metadata region.
func (h *Header) WrappedMasterKey() []byte {
	return h.UserMetadata[:WrappedKeyOffset]
}

// Label returns the volume label: the metadata bytes after the wrapped
// master key, with NUL padding trimmed.
func (h *Header) Label() string {
	return string(bytes.TrimRight(h.UserMetadata[WrappedKeyOffset:], "\x00"))
}

// KDFParams returns the Argon2id cost parameters recorded in the header.
func (h *Header) KDFParams() crypto.KDFParams {
	return crypto.KDFParams{
		Memory:      h.KDFMemory,
		Time:        h.KDFTime,
		Parallelism: h.KDFParallelism,
	}
}

// Params are the inputs to Create. All byte fields have mandatory fixed
// sizes except UserMetadata, which may be short (zero-padded) but never
// longer than MetadataSize.
type Params struct {
	VolumeSize     uint64
	Salt           []byte
	KDFMemory      uint32
	KDFTime        uint32
	KDFParallelism uint32
	KEMCiphertext  []byte
	MasterKeyHash  []byte
	Flags          uint32
	UserMetadata   []byte
}

// Create serializes a new volume header. Both timestamps are set to now.
// All fields are written at fixed offsets into a fixed-size buffer, so
// the Size invariant holds by construction; the integrity hash over
// bytes [0,offHeaderHash) is computed last. Input size validation runs
// before any hashing.
func Create(p Params) ([]byte, error) {
	if len(p.Salt) != sizeSalt {
		return nil, fmt.Errorf("%w: salt is %d bytes, want %d", ErrSizeMismatch, len(p.Salt), sizeSalt)
	}
	if len(p.KEMCiphertext) != sizeKEMCipher {
		return nil, fmt.Errorf("%w: KEM ciphertext is %d bytes, want %d", ErrSizeMismatch, len(p.KEMCiphertext), sizeKEMCipher)
	}
	if len(p.MasterKeyHash) != sizeMasterHash {
		return nil, fmt.Errorf("%w: master key hash is %d bytes, want %d", ErrSizeMismatch, len(p.MasterKeyHash), sizeMasterHash)
	}
	if len(p.UserMetadata) > MetadataSize {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrMetadataTooLarge, len(p.UserMetadata), MetadataSize)
	}

	now := time.Now().Unix()

	var buf [Size]byte
	copy(buf[offMagic:], magicHeader[:])
	binary.BigEndian.PutUint16(buf[offVersion:], Version)
	binary.BigEndian.PutUint16(buf[offHeaderSize:], Size)
	binary.BigEndian.PutUint32(buf[offFlags:], p.Flags)
	binary.BigEndian.PutUint64(buf[offVolumeSize:], p.VolumeSize)
	binary.BigEndian.PutUint64(buf[offCreated:], uint64(now))
	binary.BigEndian.PutUint64(buf[offModified:], uint64(now))
	copy(buf[offSalt:offSalt+sizeSalt], p.Salt)
	binary.BigEndian.PutUint32(buf[offKDFMemory:], p.KDFMemory)
	binary.BigEndian.PutUint32(buf[offKDFTime:], p.KDFTime)
	binary.BigEndian.PutUint32(buf[offKDFParallel:], p.KDFParallelism)
	copy(buf[offKEMCipher:offKEMCipher+sizeKEMCipher], p.KEMCiphertext)
	copy(buf[offMasterHash:offMasterHash+sizeMasterHash], p.MasterKeyHash)
	copy(buf[offMetadata:offMetadata+MetadataSize], p.UserMetadata)
	copy(buf[offFooter:], magicFooter[:])

	digest := crypto.Sum256(buf[:offHeaderHash])
	copy(buf[offHeaderHash:offHeaderHash+sizeHeaderHash], digest[:])

	return buf[:], nil
}

// Parse validates a serialized header and returns its fields. Checks
// run in order: length, then markers/version/declared size, then the
// integrity hash. All of them complete before any field containing key
// material is extracted, so clearly malformed input fails fast.
func Parse(buf []byte) (*Header, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrCorruptHeader, len(buf), Size)
	}

	if !bytes.Equal(buf[offMagic:offMagic+sizeMagic], magicHeader[:]) {
		return nil, fmt.Errorf("%w: bad header marker", ErrInvalidMagic)
	}
	if !bytes.Equal(buf[offFooter:offFooter+sizeMagic], magicFooter[:]) {
		return nil, fmt.Errorf("%w: bad footer marker", ErrInvalidMagic)
	}
	if v := binary.BigEndian.Uint16(buf[offVersion:]); v != Version {
		return nil, fmt.Errorf("%w: version 0x%04x, want 0x%04x", ErrInvalidMagic, v, Version)
	}
	if s := binary.BigEndian.Uint16(buf[offHeaderSize:]); s != Size {
		return nil, fmt.Errorf("%w: declared size %d, want %d", ErrInvalidMagic, s, Size)
	}

	// The header hash is not secret; ordinary comparison suffices.
	digest := crypto.Sum256(buf[:offHeaderHash])
	if !bytes.Equal(digest[:], buf[offHeaderHash:offHeaderHash+sizeHeaderHash]) {
		return nil, fmt.Errorf("%w: header modified or corrupted", ErrIntegrityMismatch)
	}

	h := &Header{
		Version:        binary.BigEndian.Uint16(buf[offVersion:]),
		Flags:          binary.BigEndian.Uint32(buf[offFlags:]),
		VolumeSize:     binary.BigEndian.Uint64(buf[offVolumeSize:]),
		Created:        time.Unix(int64(binary.BigEndian.Uint64(buf[offCreated:])), 0).UTC(),
		Modified:       time.Unix(int64(binary.BigEndian.Uint64(buf[offModified:])), 0).UTC(),
		Salt:           make([]byte, sizeSalt),
		KDFMemory:      binary.BigEndian.Uint32(buf[offKDFMemory:]),
		KDFTime:        binary.BigEndian.Uint32(buf[offKDFTime:]),
		KDFParallelism: binary.BigEndian.Uint32(buf[offKDFParallel:]),
		KEMCiphertext:  make([]byte, sizeKEMCipher),
		MasterKeyHash:  make([]byte, sizeMasterHash),
		UserMetadata:   make([]byte, MetadataSize),
	}
	copy(h.Salt, buf[offSalt:])
	copy(h.KEMCiphertext, buf[offKEMCipher:])
	copy(h.MasterKeyHash, buf[offMasterHash:])
	copy(h.UserMetadata, buf[offMetadata:])

	return h, nil
}

// UpdateTimestamp returns a copy of the header with the modified
// timestamp advanced to now and the integrity hash recomputed. The input
// buffer is not mutated. The input must parse cleanly first.
func UpdateTimestamp(buf []byte) ([]byte, error) {
	if _, err := Parse(buf); err != nil {
		return nil, err
	}

	out := make([]byte, Size)
	copy(out, buf)

	binary.BigEndian.PutUint64(out[offModified:], uint64(time.Now().Unix()))
	digest := crypto.Sum256(out[:offHeaderHash])
	copy(out[offHeaderHash:offHeaderHash+sizeHeaderHash], digest[:])

	return out, nil
}
