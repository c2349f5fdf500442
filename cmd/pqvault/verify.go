package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pqvault "github.com/pqvault/volume-go"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <volume-path>",
	Short: "Mount a volume to verify its password and integrity",
	Long: `Mount the volume with a prompted password, walking the full
key hierarchy. Success proves the password is right and the header and
key material are intact.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(args[0])
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(path string) error {
	password, err := promptPassword(false)
	if err != nil {
		return err
	}

	vol, err := pqvault.Mount(path, password)
	if err != nil {
		return err
	}
	defer vol.Close()

	stats, err := vol.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("OK: %s unlocked\n", path)
	printStats(stats)
	return nil
}
