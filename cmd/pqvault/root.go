package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	pqvault "github.com/pqvault/volume-go"
)

var rootCmd = &cobra.Command{
	Use:   "pqvault",
	Short: "Post-quantum encrypted volume containers",
	Long: `pqvault manages encrypted volume containers protected by a
post-quantum key hierarchy: Argon2id for the password, ML-KEM-1024 for
key encapsulation, ChaCha20-Poly1305 for data.

Commands:
  create    Create a new volume file
  info      Show header fields without a password
  verify    Mount a volume to verify its password and integrity`,
	Version: "1.0.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig reads ~/.pqvault.yaml and PQVAULT_* environment variables
// for defaults. Missing config is fine; flags always win.
func initConfig() {
	viper.SetConfigName(".pqvault")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("profile", "high")
	viper.SetDefault("keystore_dir", "")

	viper.SetEnvPrefix("PQVAULT")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// profileByName maps the CLI profile names onto KDF profiles.
func profileByName(name string) (pqvault.Profile, error) {
	switch name {
	case "low":
		return pqvault.ProfileLow, nil
	case "medium":
		return pqvault.ProfileMedium, nil
	case "high":
		return pqvault.ProfileHigh, nil
	case "paranoid":
		return pqvault.ProfileParanoid, nil
	}
	return pqvault.Profile{}, fmt.Errorf("unknown profile %q (low, medium, high, paranoid)", name)
}

// promptPassword reads a password from the terminal with echo disabled.
// With confirm set it prompts twice and requires both entries to match.
func promptPassword(confirm bool) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("no terminal available for password prompt")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm password: ")
		again, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		if string(password) != string(again) {
			return nil, fmt.Errorf("passwords do not match")
		}
	}

	return password, nil
}
