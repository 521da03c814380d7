package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sjieng123/zids/gdfa"
	"github.com/sjieng123/zids/gdfa/packager"
)

var (
	inspectDirectory bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect PATH",
	Short: "Print a GDFA artifact's header fields and verify its rows digest",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectDirectory, "directory", false, "treat PATH as a directory artifact instead of a single-file container")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	art, err := loadArtifact(path, inspectDirectory)
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}

	digest := art.RowsDigest()
	fmt.Printf("alphabet_size: %d\n", art.Header.AlphabetSize)
	fmt.Printf("num_states:    %d\n", art.Header.NumStates)
	fmt.Printf("outmax:        %d\n", art.Header.Outmax)
	fmt.Printf("cmax:          %d\n", art.Header.Cmax)
	fmt.Printf("cell_bytes:    %d\n", art.Header.CellBytes)
	fmt.Printf("row_bytes:     %d\n", art.Header.RowBytes)
	fmt.Printf("aid_bits:      %d\n", art.Header.AidBits)
	fmt.Printf("start_row:     %d\n", art.Header.StartRow)
	fmt.Printf("permuted:      %t\n", len(art.Header.Permutation) != 0)
	fmt.Printf("row_aids:      %t\n", art.RowAids != nil)
	fmt.Printf("rows_sha256:   %x\n", digest)

	return nil
}

func loadArtifact(path string, directory bool) (*gdfa.Artifact, error) {
	if directory {
		return packager.ReadDirectory(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return packager.ReadContainer(f)
}
