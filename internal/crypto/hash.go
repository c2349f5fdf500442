package crypto

import "github.com/zeebo/blake3"

// Sum256 computes the BLAKE3 digest of data. Used for the header
// integrity hash and the master key fingerprint.
func Sum256(data []byte) [HashSize]byte {
	return blake3.Sum256(data)
}
