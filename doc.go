// Package pqvault creates and mounts post-quantum encrypted volume
// containers: single files carrying a fixed 2048-byte header, a wrapped
// ML-KEM-1024 secret key, and an encrypted block region.
//
// Keys are layered: the password derives a key via Argon2id, which
// wraps the ML-KEM secret key; the KEM shared secret wraps the random
// master key that encrypts all volume data with ChaCha20-Poly1305.
// A future quantum adversary holding the file still faces the KEM.
//
// Basic usage:
//
//	vol, err := pqvault.Create("backups.pqv", password, 100<<20,
//	    pqvault.WithLabel("backups"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vol.Close()
//
//	if err := vol.WriteBlock(0, data); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Later, from another process:
//	vol, err = pqvault.Mount("backups.pqv", password)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vol.Close()
//
//	data, err := vol.ReadBlock(0)
//
// Wrong passwords surface as ErrWrongPassword via errors.Is; tampered
// headers as ErrIntegrityMismatch. The master key lives in locked
// memory and is zeroized on Close.
package pqvault
