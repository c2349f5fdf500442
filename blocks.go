package pqvault

import (
	"encoding/binary"
	"fmt"

	"github.com/pqvault/volume-go/internal/crypto"
)

// Block records live in the data region at fixed slots. Each record is
// blockRecordSize bytes: a 4-byte big-endian plaintext length, then the
// sealed block (nonce, 4096-byte ciphertext, tag). A zero length field
// marks a sparse block that was never written or was explicitly zeroed.

// blockAAD returns the additional authenticated data for block n: its
// index as 8 big-endian bytes followed by the plaintext length as 4.
// Binding the index prevents a valid record from being transplanted
// into another slot; binding the length prevents a rewritten length
// prefix from silently truncating the plaintext on read.
func blockAAD(n uint64, length uint32) []byte {
	var aad [12]byte
	binary.BigEndian.PutUint64(aad[:8], n)
	binary.BigEndian.PutUint32(aad[8:], length)
	return aad[:]
}

func (v *Volume) blockOffset(n uint64) int64 {
	return DataOffset + int64(n)*blockRecordSize
}

// Blocks returns the number of block slots in the data region.
func (v *Volume) Blocks() uint64 {
	return v.blocks
}

// WriteBlock seals data into block slot n. data may be up to BlockSize
// bytes; shorter blocks are zero-padded on disk and the original length
// is restored by ReadBlock.
func (v *Volume) WriteBlock(n uint64, data []byte) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return ErrVolumeClosed
	}
	if n >= v.blocks {
		return &ParameterError{Param: "block", Reason: fmt.Sprintf("index %d out of range [0,%d)", n, v.blocks)}
	}
	if len(data) > BlockSize {
		return &ParameterError{Param: "data", Reason: fmt.Sprintf("%d bytes exceeds block size %d", len(data), BlockSize)}
	}

	plaintext := make([]byte, BlockSize)
	copy(plaintext, data)

	sealed, err := crypto.Seal(v.master.Bytes(), plaintext, blockAAD(n, uint32(len(data))))
	if err != nil {
		return fmt.Errorf("seal block %d: %w", n, err)
	}

	record := make([]byte, blockRecordSize)
	binary.BigEndian.PutUint32(record, uint32(len(data)))
	copy(record[blockLenSize:], sealed)

	if _, err := v.f.WriteAt(record, v.blockOffset(n)); err != nil {
		return fmt.Errorf("write block %d: %w", n, err)
	}
	v.dirty.Store(true)
	return nil
}

// ReadBlock returns the plaintext of block slot n, trimmed to the
// length it was written with. A sparse block reads as BlockSize zero
// bytes.
func (v *Volume) ReadBlock(n uint64) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return nil, ErrVolumeClosed
	}
	if n >= v.blocks {
		return nil, &ParameterError{Param: "block", Reason: fmt.Sprintf("index %d out of range [0,%d)", n, v.blocks)}
	}

	record := make([]byte, blockRecordSize)
	if _, err := v.f.ReadAt(record, v.blockOffset(n)); err != nil {
		return nil, fmt.Errorf("read block %d: %w", n, err)
	}

	length := binary.BigEndian.Uint32(record)
	if length == 0 {
		// A sparse record is all zeros. A zeroed length field over live
		// ciphertext would otherwise read back as silent data loss.
		for _, b := range record[blockLenSize:] {
			if b != 0 {
				return nil, &DecryptionError{Block: int64(n), Err: fmt.Errorf("zero length field over non-sparse record")}
			}
		}
		return make([]byte, BlockSize), nil
	}
	if length > BlockSize {
		return nil, &DecryptionError{Block: int64(n), Err: fmt.Errorf("length field %d exceeds block size", length)}
	}

	plaintext, err := crypto.Open(v.master.Bytes(), record[blockLenSize:], blockAAD(n, length))
	if err != nil {
		return nil, &DecryptionError{Block: int64(n), Err: err}
	}
	return plaintext[:length], nil
}

// ZeroBlock resets block slot n to the sparse state. Subsequent reads
// return zero bytes; the old ciphertext is overwritten.
func (v *Volume) ZeroBlock(n uint64) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return ErrVolumeClosed
	}
	if n >= v.blocks {
		return &ParameterError{Param: "block", Reason: fmt.Sprintf("index %d out of range [0,%d)", n, v.blocks)}
	}

	record := make([]byte, blockRecordSize)
	if _, err := v.f.WriteAt(record, v.blockOffset(n)); err != nil {
		return fmt.Errorf("zero block %d: %w", n, err)
	}
	v.dirty.Store(true)
	return nil
}
