package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	pqvault "github.com/pqvault/volume-go"
)

var infoCmd = &cobra.Command{
	Use:   "info <volume-path>",
	Short: "Show header fields without a password",
	Long: `Read and validate the volume header and print its fields.
No password is needed; the header carries no plaintext secrets.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := pqvault.Stat(args[0])
		if err != nil {
			return err
		}
		printStats(stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func flagNames(flags uint32) string {
	var names []string
	if flags&pqvault.FlagCompressed != 0 {
		names = append(names, "compressed")
	}
	if flags&pqvault.FlagHidden != 0 {
		names = append(names, "hidden")
	}
	if flags&pqvault.FlagKeyfile != 0 {
		names = append(names, "keyfile")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func printStats(s pqvault.VolumeStats) {
	fmt.Printf("  Path:        %s\n", s.Path)
	if s.Label != "" {
		fmt.Printf("  Label:       %s\n", s.Label)
	}
	fmt.Printf("  Version:     0x%04x\n", s.Version)
	fmt.Printf("  Flags:       %s\n", flagNames(s.Flags))
	fmt.Printf("  Size:        %d bytes (%d blocks of %d)\n", s.SizeBytes, s.Blocks, s.BlockSize)
	fmt.Printf("  Created:     %s\n", s.Created.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Modified:    %s\n", s.Modified.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  KDF:         Argon2id m=%d KiB t=%d p=%d\n", s.KDF.Memory, s.KDF.Time, s.KDF.Parallelism)
	fmt.Printf("  Ciphersuite: %s\n", s.Ciphersuite)
}
