package pqvault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pqvault/volume-go/internal/crypto"
	"github.com/pqvault/volume-go/internal/header"
)

// VolumeStats describes a volume without exposing key material. All
// fields come from the header, so Stat can produce them without a
// password.
type VolumeStats struct {
	Path        string
	Label       string
	Version     uint16
	Flags       uint32
	SizeBytes   uint64 // data region capacity
	Blocks      uint64 // block slots in the data region
	BlockSize   int    // plaintext bytes per block
	Created     time.Time
	Modified    time.Time
	KDF         Profile
	Ciphersuite string
}

func statsFromHeader(path string, hdr *header.Header) VolumeStats {
	return VolumeStats{
		Path:        path,
		Label:       hdr.Label(),
		Version:     hdr.Version,
		Flags:       hdr.Flags,
		SizeBytes:   hdr.VolumeSize,
		Blocks:      hdr.VolumeSize / blockRecordSize,
		BlockSize:   BlockSize,
		Created:     hdr.Created,
		Modified:    hdr.Modified,
		KDF:         hdr.KDFParams(),
		Ciphersuite: crypto.Ciphersuite,
	}
}

// Stats returns the open volume's description.
func (v *Volume) Stats() (VolumeStats, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return VolumeStats{}, ErrVolumeClosed
	}
	return statsFromHeader(v.path, v.hdr), nil
}

// Stat reads and validates the header of the volume file at path
// without mounting it. No password is needed; the header carries no
// plaintext secrets.
func Stat(path string) (VolumeStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return VolumeStats{}, fmt.Errorf("volume %s: %w", path, ErrVolumeNotFound)
		}
		return VolumeStats{}, fmt.Errorf("open volume file: %w", err)
	}
	defer f.Close()

	rawHdr := make([]byte, header.Size)
	if _, err := f.ReadAt(rawHdr, 0); err != nil {
		return VolumeStats{}, fmt.Errorf("volume %s: read header: %w", path, ErrCorruptHeader)
	}

	hdr, err := header.Parse(rawHdr)
	if err != nil {
		return VolumeStats{}, &HeaderError{Path: path, Err: err}
	}
	return statsFromHeader(path, hdr), nil
}
