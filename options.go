package pqvault

import (
	"github.com/pqvault/volume-go/internal/crypto"
	"github.com/pqvault/volume-go/internal/header"
)

// Profile holds Argon2id cost parameters for the password KDF.
type Profile = crypto.KDFParams

// Security profiles for the password KDF. Higher profiles slow both
// mounting and brute-force attempts.
var (
	// ProfileLow uses 256 MiB and 3 iterations.
	ProfileLow = crypto.ProfileLow
	// ProfileMedium uses 512 MiB and 5 iterations.
	ProfileMedium = crypto.ProfileMedium
	// ProfileHigh uses 1 GiB and 10 iterations. The default.
	ProfileHigh = crypto.ProfileHigh
	// ProfileParanoid uses 2 GiB and 20 iterations.
	ProfileParanoid = crypto.ProfileParanoid
)

// Volume flag bits, persisted in the header. Compression and hidden
// volumes are reserved bits in the current format version.
const (
	FlagCompressed = header.FlagCompressed
	FlagHidden     = header.FlagHidden
	FlagKeyfile    = header.FlagKeyfile
)

// DefaultMinPasswordLength is the minimum password length enforced by
// Create unless overridden with WithMinPasswordLength.
const DefaultMinPasswordLength = 8

// volumeConfig holds configuration for volume creation and mounting.
type volumeConfig struct {
	label             string
	profile           Profile
	flags             uint32
	minPasswordLength int
	keystore          Keystore
}

// Option configures Create and Mount.
type Option func(*volumeConfig)

func defaultConfig() *volumeConfig {
	return &volumeConfig{
		profile:           ProfileHigh,
		minPasswordLength: DefaultMinPasswordLength,
	}
}

// WithLabel sets the volume label stored in the header's user-metadata
// region. At most MaxLabelSize bytes.
func WithLabel(label string) Option {
	return func(c *volumeConfig) {
		c.label = label
	}
}

// WithProfile sets the Argon2id cost profile used to derive the
// password key. Only meaningful at creation; mounting reads the cost
// parameters back from the header.
func WithProfile(p Profile) Option {
	return func(c *volumeConfig) {
		c.profile = p
	}
}

// WithFlags sets the volume flag bits persisted in the header.
func WithFlags(flags uint32) Option {
	return func(c *volumeConfig) {
		c.flags = flags
	}
}

// WithMinPasswordLength overrides the minimum password length check.
// Lengths below 1 are treated as 1; empty passwords are never accepted.
func WithMinPasswordLength(n int) Option {
	return func(c *volumeConfig) {
		if n < 1 {
			n = 1
		}
		c.minPasswordLength = n
	}
}

// WithKeystore escrows the wrapped master-key package to ks at creation
// time, keyed by the volume's salt. The escrowed package is itself
// encrypted; the keystore never sees a raw key.
func WithKeystore(ks Keystore) Option {
	return func(c *volumeConfig) {
		c.keystore = ks
	}
}
