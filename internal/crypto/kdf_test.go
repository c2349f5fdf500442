package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}

	key, err := DeriveKey([]byte("correct_password_123"), salt, TestKDFParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	defer key.Close()
	if key.Len() != KeySize {
		t.Errorf("derived key size = %d, want %d", key.Len(), KeySize)
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}

	key1, err := DeriveKey([]byte("password"), salt, TestKDFParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	defer key1.Close()
	key2, err := DeriveKey([]byte("password"), salt, TestKDFParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	defer key2.Close()

	if !key1.Equal(key2.Bytes()) {
		t.Error("same password and salt derived different keys")
	}
}

func TestDeriveKey_SaltSensitivity(t *testing.T) {
	salt1, _ := NewSalt()
	salt2, _ := NewSalt()

	key1, err := DeriveKey([]byte("password"), salt1, TestKDFParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	defer key1.Close()
	key2, err := DeriveKey([]byte("password"), salt2, TestKDFParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	defer key2.Close()

	if key1.Equal(key2.Bytes()) {
		t.Error("different salts derived identical keys")
	}
}

func TestDeriveKey_Invalid(t *testing.T) {
	salt := make([]byte, SaltSize)

	tests := []struct {
		name     string
		password []byte
		salt     []byte
		params   KDFParams
		wantErr  error
	}{
		{
			name:     "empty password",
			password: nil,
			salt:     salt,
			params:   TestKDFParams,
			wantErr:  ErrInvalidKDFParams,
		},
		{
			name:     "short salt",
			password: []byte("password"),
			salt:     make([]byte, 16),
			params:   TestKDFParams,
			wantErr:  ErrInvalidSaltSize,
		},
		{
			name:     "zero time cost",
			password: []byte("password"),
			salt:     salt,
			params:   KDFParams{Memory: 64, Time: 0, Parallelism: 1},
			wantErr:  ErrInvalidKDFParams,
		},
		{
			name:     "zero parallelism",
			password: []byte("password"),
			salt:     salt,
			params:   KDFParams{Memory: 64, Time: 1, Parallelism: 0},
			wantErr:  ErrInvalidKDFParams,
		},
		{
			name:     "memory below minimum",
			password: []byte("password"),
			salt:     salt,
			params:   KDFParams{Memory: 4, Time: 1, Parallelism: 1},
			wantErr:  ErrInvalidKDFParams,
		},
		{
			name:     "parallelism overflows header field",
			password: []byte("password"),
			salt:     salt,
			params:   KDFParams{Memory: 1 << 20, Time: 1, Parallelism: 300},
			wantErr:  ErrInvalidKDFParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKey(tt.password, tt.salt, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DeriveKey() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	for _, tt := range []struct {
		name   string
		params KDFParams
	}{
		{"low", ProfileLow},
		{"medium", ProfileMedium},
		{"high", ProfileHigh},
		{"paranoid", ProfileParanoid},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.params.Validate(); err != nil {
				t.Errorf("profile %s does not validate: %v", tt.name, err)
			}
		})
	}
}

func TestNewSalt_Uniqueness(t *testing.T) {
	salt1, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	salt2, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}

	if len(salt1) != SaltSize {
		t.Errorf("salt size = %d, want %d", len(salt1), SaltSize)
	}
	if bytes.Equal(salt1, salt2) {
		t.Error("two salts are identical")
	}
}

func TestNewKey(t *testing.T) {
	key1, err := NewKey()
	if err != nil {
		t.Fatalf("NewKey() error = %v", err)
	}
	key2, err := NewKey()
	if err != nil {
		t.Fatalf("NewKey() error = %v", err)
	}

	if len(key1) != KeySize {
		t.Errorf("key size = %d, want %d", len(key1), KeySize)
	}
	if bytes.Equal(key1, key2) {
		t.Error("two generated keys are identical")
	}
}
