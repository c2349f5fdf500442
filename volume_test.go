package pqvault

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pqvault/volume-go/internal/crypto"
	"github.com/pqvault/volume-go/internal/header"
)

const (
	testPassword = "correct-horse-battery"
	testSize     = 1 << 20 // 253 block slots
)

// testOptions makes volume creation fast enough for tests. The tiny
// KDF parameters are unsafe outside tests.
func testOptions(opts ...Option) []Option {
	return append([]Option{WithProfile(crypto.TestKDFParams)}, opts...)
}

func createTestVolume(t *testing.T, opts ...Option) (*Volume, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.pqv")
	vol, err := Create(path, []byte(testPassword), testSize, testOptions(opts...)...)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { vol.Close() })
	return vol, path
}

func TestCreateMountRoundTrip(t *testing.T) {
	vol, path := createTestVolume(t, WithLabel("photos"), WithFlags(FlagKeyfile))

	sealed, err := vol.Encrypt([]byte("hello volume"), nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if err := vol.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mounted, err := Mount(path, []byte(testPassword))
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer mounted.Close()

	plaintext, err := mounted.Decrypt(sealed, nil)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(plaintext) != "hello volume" {
		t.Errorf("Decrypt() = %q, want %q", plaintext, "hello volume")
	}
	if mounted.Label() != "photos" {
		t.Errorf("Label() = %q, want photos", mounted.Label())
	}
}

func TestCreateInvalidParameters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vol.pqv")
	longLabel := string(bytes.Repeat([]byte{'a'}, header.MaxLabelSize+1))

	tests := []struct {
		name     string
		path     string
		password string
		size     uint64
		opts     []Option
	}{
		{"empty path", "", testPassword, testSize, testOptions()},
		{"empty password", path, "", testSize, testOptions()},
		{"short password", path, "short", testSize, testOptions()},
		{"zero size", path, testPassword, 0, testOptions()},
		{"oversize label", path, testPassword, testSize, testOptions(WithLabel(longLabel))},
		{"bad profile", path, testPassword, testSize, []Option{WithProfile(Profile{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(tt.path, []byte(tt.password), tt.size, tt.opts...)
			if !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("Create() error = %v, want %v", err, ErrInvalidParameters)
			}
		})
	}

	// Nothing above should have left a file behind.
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("rejected Create left a file at %s", path)
	}
}

func TestCreateShortPasswordAllowedWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vol.pqv")
	vol, err := Create(path, []byte("pin"), testSize, testOptions(WithMinPasswordLength(3))...)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	vol.Close()
}

func TestCreateExistingFile(t *testing.T) {
	vol, path := createTestVolume(t)
	vol.Close()

	_, err := Create(path, []byte(testPassword), testSize, testOptions()...)
	if !errors.Is(err, ErrVolumeExists) {
		t.Errorf("Create() error = %v, want %v", err, ErrVolumeExists)
	}
}

func TestMountNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pqv")
	if _, err := Mount(path, []byte(testPassword)); !errors.Is(err, ErrVolumeNotFound) {
		t.Errorf("Mount() error = %v, want %v", err, ErrVolumeNotFound)
	}
}

func TestMountWrongPassword(t *testing.T) {
	vol, path := createTestVolume(t)
	vol.Close()

	if _, err := Mount(path, []byte("not-the-password")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Mount() error = %v, want %v", err, ErrWrongPassword)
	}
}

// tamper flips one byte of the volume file at offset off.
func tamper(t *testing.T, path string, off int64) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open for tampering: %v", err)
	}
	defer f.Close()

	b := make([]byte, 1)
	if _, err := f.ReadAt(b, off); err != nil {
		t.Fatalf("read at %d: %v", off, err)
	}
	b[0] ^= 0x01
	if _, err := f.WriteAt(b, off); err != nil {
		t.Fatalf("write at %d: %v", off, err)
	}
}

func TestMountTamperedHeader(t *testing.T) {
	vol, path := createTestVolume(t)
	vol.Close()

	// Inside the hashed region (the salt field).
	tamper(t, path, 50)

	if _, err := Mount(path, []byte(testPassword)); !errors.Is(err, ErrIntegrityMismatch) {
		t.Errorf("Mount() error = %v, want %v", err, ErrIntegrityMismatch)
	}
}

func TestMountBadMagic(t *testing.T) {
	vol, path := createTestVolume(t)
	vol.Close()

	// Marker checks run before the integrity hash, so a bad marker is
	// reported as such even though it also falls in the hashed region.
	tamper(t, path, 0)

	if _, err := Mount(path, []byte(testPassword)); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("Mount() error = %v, want %v", err, ErrInvalidMagic)
	}
}

func TestMountTamperedSecretKeyRegion(t *testing.T) {
	vol, path := createTestVolume(t)
	vol.Close()

	// A damaged wrapped secret key is indistinguishable from a wrong
	// password: both fail the same AEAD open.
	tamper(t, path, header.Size+100)

	if _, err := Mount(path, []byte(testPassword)); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Mount() error = %v, want %v", err, ErrWrongPassword)
	}
}

func TestMountTamperedWrappedMasterKey(t *testing.T) {
	vol, path := createTestVolume(t)
	vol.Close()

	// User metadata is outside the header hash; damage there surfaces
	// at the master-key unwrap stage, past the password.
	tamper(t, path, 1790)

	if _, err := Mount(path, []byte(testPassword)); !errors.Is(err, ErrCorruptVolume) {
		t.Errorf("Mount() error = %v, want %v", err, ErrCorruptVolume)
	}
}

func TestMountTruncatedFile(t *testing.T) {
	vol, path := createTestVolume(t)
	vol.Close()

	tests := []struct {
		name    string
		size    int64
		wantErr error
	}{
		{"shorter than header", header.Size - 1, ErrCorruptHeader},
		{"header only", header.Size, ErrCorruptVolume},
		{"partial secret key", header.Size + 100, ErrCorruptVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.Truncate(path, tt.size); err != nil {
				t.Fatalf("truncate: %v", err)
			}
			if _, err := Mount(path, []byte(testPassword)); !errors.Is(err, tt.wantErr) {
				t.Errorf("Mount() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncryptDecryptPayload(t *testing.T) {
	vol, _ := createTestVolume(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"small", []byte("x")},
		{"binary", bytes.Repeat([]byte{0x00, 0xFF}, 500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := vol.Encrypt(tt.plaintext, nil)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			got, err := vol.Decrypt(sealed, nil)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Error("plaintext does not round-trip")
			}
		})
	}
}

func TestEncryptOverheadIsFixed(t *testing.T) {
	vol, _ := createTestVolume(t)

	sealed, err := vol.Encrypt([]byte("hello world"), nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if len(sealed) != len("hello world")+crypto.SealedOverhead {
		t.Errorf("sealed length = %d, want %d", len(sealed), len("hello world")+crypto.SealedOverhead)
	}
	if bytes.Contains(sealed, []byte("hello world")) {
		t.Error("sealed blob contains the plaintext")
	}
}

func TestDecryptAADMismatch(t *testing.T) {
	vol, _ := createTestVolume(t)

	sealed, err := vol.Encrypt([]byte("bound payload"), []byte("context-a"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := vol.Decrypt(sealed, []byte("context-b")); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt(wrong aad) error = %v, want %v", err, ErrDecryptionFailed)
	}
	got, err := vol.Decrypt(sealed, []byte("context-a"))
	if err != nil {
		t.Fatalf("Decrypt(right aad) error = %v", err)
	}
	if string(got) != "bound payload" {
		t.Errorf("Decrypt() = %q, want %q", got, "bound payload")
	}
}

func TestCreateProducesUniqueVolumes(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.pqv"), filepath.Join(dir, "b.pqv")}
	raws := make([][]byte, len(paths))

	for i, path := range paths {
		vol, err := Create(path, []byte(testPassword), testSize, testOptions()...)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", path, err)
		}
		vol.Close()

		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		raws[i] = raw[:DataOffset]
	}

	// Same password, but fresh salt and keys every time: the headers and
	// wrapped key material must differ.
	hdrA, err := header.Parse(raws[0][:header.Size])
	if err != nil {
		t.Fatalf("parse header A: %v", err)
	}
	hdrB, err := header.Parse(raws[1][:header.Size])
	if err != nil {
		t.Fatalf("parse header B: %v", err)
	}
	if bytes.Equal(hdrA.Salt, hdrB.Salt) {
		t.Error("two volumes share a salt")
	}
	if bytes.Equal(hdrA.MasterKeyHash, hdrB.MasterKeyHash) {
		t.Error("two volumes share a master key hash")
	}
	if bytes.Equal(raws[0], raws[1]) {
		t.Error("two volumes are byte-identical")
	}
}

func TestDecryptTampered(t *testing.T) {
	vol, _ := createTestVolume(t)

	sealed, err := vol.Encrypt([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	sealed[len(sealed)-1] ^= 0x01

	if _, err := vol.Decrypt(sealed, nil); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() error = %v, want %v", err, ErrDecryptionFailed)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	vol, _ := createTestVolume(t)
	if err := vol.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := vol.Encrypt([]byte("x"), nil); !errors.Is(err, ErrVolumeClosed) {
		t.Errorf("Encrypt() error = %v, want %v", err, ErrVolumeClosed)
	}
	if _, err := vol.Decrypt([]byte("x"), nil); !errors.Is(err, ErrVolumeClosed) {
		t.Errorf("Decrypt() error = %v, want %v", err, ErrVolumeClosed)
	}
	if _, err := vol.ReadBlock(0); !errors.Is(err, ErrVolumeClosed) {
		t.Errorf("ReadBlock() error = %v, want %v", err, ErrVolumeClosed)
	}
	if err := vol.WriteBlock(0, []byte("x")); !errors.Is(err, ErrVolumeClosed) {
		t.Errorf("WriteBlock() error = %v, want %v", err, ErrVolumeClosed)
	}
	if _, err := vol.Stats(); !errors.Is(err, ErrVolumeClosed) {
		t.Errorf("Stats() error = %v, want %v", err, ErrVolumeClosed)
	}
}

func TestCloseIdempotent(t *testing.T) {
	vol, _ := createTestVolume(t)
	if err := vol.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := vol.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestCloseAfterWriteRefreshesTimestamp(t *testing.T) {
	vol, path := createTestVolume(t)

	before, err := vol.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if err := vol.WriteBlock(0, []byte("dirty")); err != nil {
		t.Fatalf("WriteBlock() error = %v", err)
	}
	if err := vol.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	after, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if after.Modified.Before(before.Modified) {
		t.Errorf("Modified went backwards: %v -> %v", before.Modified, after.Modified)
	}
	if !after.Created.Equal(before.Created) {
		t.Errorf("Created changed: %v -> %v", before.Created, after.Created)
	}

	// A refreshed header must still mount.
	mounted, err := Mount(path, []byte(testPassword))
	if err != nil {
		t.Fatalf("Mount() after dirty close error = %v", err)
	}
	mounted.Close()
}

func TestConcurrentEncryptDecryptWithClose(t *testing.T) {
	vol, _ := createTestVolume(t)

	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 50; j++ {
				sealed, err := vol.Encrypt([]byte("concurrent payload"), nil)
				if err != nil {
					if errors.Is(err, ErrVolumeClosed) {
						return
					}
					t.Errorf("Encrypt() error = %v", err)
					return
				}
				if _, err := vol.Decrypt(sealed, nil); err != nil {
					if errors.Is(err, ErrVolumeClosed) {
						return
					}
					t.Errorf("Decrypt() error = %v", err)
					return
				}
			}
		}()
	}

	close(start)
	// Close while workers are mid-stream; it must drain, not race.
	if err := vol.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	wg.Wait()
}

func TestStatsFields(t *testing.T) {
	vol, path := createTestVolume(t, WithLabel("stats"), WithFlags(FlagHidden))

	stats, err := vol.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Path != path {
		t.Errorf("Path = %s, want %s", stats.Path, path)
	}
	if stats.Label != "stats" {
		t.Errorf("Label = %q, want stats", stats.Label)
	}
	if stats.Flags != FlagHidden {
		t.Errorf("Flags = %#x, want %#x", stats.Flags, FlagHidden)
	}
	if stats.SizeBytes != testSize {
		t.Errorf("SizeBytes = %d, want %d", stats.SizeBytes, testSize)
	}
	if stats.Blocks != vol.Blocks() {
		t.Errorf("Blocks = %d, want %d", stats.Blocks, vol.Blocks())
	}
	if stats.BlockSize != BlockSize {
		t.Errorf("BlockSize = %d, want %d", stats.BlockSize, BlockSize)
	}
	if stats.KDF != crypto.TestKDFParams {
		t.Errorf("KDF = %+v, want %+v", stats.KDF, crypto.TestKDFParams)
	}
	if stats.Ciphersuite == "" {
		t.Error("Ciphersuite is empty")
	}
}

func TestStatWithoutPassword(t *testing.T) {
	vol, path := createTestVolume(t, WithLabel("no-password-needed"))
	vol.Close()

	stats, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stats.Label != "no-password-needed" {
		t.Errorf("Label = %q, want no-password-needed", stats.Label)
	}
}

func TestStatErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.pqv")
	if _, err := Stat(missing); !errors.Is(err, ErrVolumeNotFound) {
		t.Errorf("Stat() error = %v, want %v", err, ErrVolumeNotFound)
	}

	vol, path := createTestVolume(t)
	vol.Close()
	tamper(t, path, 20)
	if _, err := Stat(path); !errors.Is(err, ErrIntegrityMismatch) {
		t.Errorf("Stat() error = %v, want %v", err, ErrIntegrityMismatch)
	}
}

func TestVolumeFileLayout(t *testing.T) {
	vol, path := createTestVolume(t)
	vol.Close()

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if fi.Size() != DataOffset+testSize {
		t.Errorf("file size = %d, want %d", fi.Size(), DataOffset+testSize)
	}
	if fi.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", fi.Mode().Perm())
	}
}
