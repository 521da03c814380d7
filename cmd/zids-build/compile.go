package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sjieng123/zids/builder"
	"github.com/sjieng123/zids/gdfa"
	"github.com/sjieng123/zids/gdfa/packager"
	"github.com/sjieng123/zids/gdfa/rowalpha"
	"github.com/sjieng123/zids/seedregistry"
	"github.com/sjieng123/zids/seedschedule"
)

var (
	dfaPath      string
	outPath      string
	outDirectory bool
	gzipHeader   bool
	aidBits      int
	outmax       int
	seedMode     string
	masterKeyHex string
	gkBytes      int
	kBytes       int
	legacyLayout bool
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a DFA JSON file into an encrypted GDFA artifact",
	Long: `compile reads a plaintext DFA description (total byte transitions plus
per-state accept ids), builds the row-alphabet partition and encrypted
artifact under the requested seed mode, and writes both to disk.`,
	Example: `  # Compile to a single-file container
  zids-build compile --dfa rules.json --out artifact.zids --seed-mode master->GK->seed --master-key-hex 00112233...

  # Compile to a directory artifact
  zids-build compile --dfa rules.json --out ./artifact --directory --seed-mode master->seed --master-key-hex 00112233...`,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVar(&dfaPath, "dfa", "", "path to the DFA JSON file (required)")
	compileCmd.Flags().StringVar(&outPath, "out", "", "output container path or directory (required)")
	compileCmd.Flags().BoolVar(&outDirectory, "directory", false, "write the directory form instead of a single-file container")
	compileCmd.Flags().BoolVar(&gzipHeader, "gzip-header", false, "gzip header.json in directory form")
	compileCmd.Flags().IntVar(&aidBits, "aid-bits", 16, "bits reserved for the attack/accept id in each cell")
	compileCmd.Flags().IntVar(&outmax, "outmax", 4, "maximum columns per row (row-alphabet group bound)")
	compileCmd.Flags().StringVar(&seedMode, "seed-mode", string(seedschedule.ModeMasterToGKToSeed), "seed derivation mode (master->GK->seed, master->seed)")
	compileCmd.Flags().StringVar(&masterKeyHex, "master-key-hex", "", "hex-encoded master key (required; consider ${ZIDS_MASTER_KEY_HEX} instead)")
	compileCmd.Flags().IntVar(&gkBytes, "gk-bytes", 32, "group key length in bytes")
	compileCmd.Flags().IntVar(&kBytes, "k-bytes", 16, "seed length in bytes")
	compileCmd.Flags().BoolVar(&legacyLayout, "legacy-layout", false, "pack cells under the legacy [attack_id][next_row] layout instead of canonical")

	_ = compileCmd.MarkFlagRequired("dfa")
	_ = compileCmd.MarkFlagRequired("out")
	_ = compileCmd.MarkFlagRequired("master-key-hex")
}

// dfaFile is the on-disk JSON shape a DFA compiles from: per-state total
// byte transitions plus an optional accept id (0 = non-accepting).
type dfaFile struct {
	NumStates   int        `json:"num_states"`
	StartState  int        `json:"start_state"`
	Transitions [][256]int `json:"transitions"`
	AcceptIDs   []uint32   `json:"accept_ids"`
}

func loadDFA(path string) (builder.DFA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return builder.DFA{}, fmt.Errorf("read dfa file: %w", err)
	}

	var f dfaFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return builder.DFA{}, fmt.Errorf("parse dfa file: %w", err)
	}

	if f.AcceptIDs == nil {
		f.AcceptIDs = make([]uint32, f.NumStates)
	}

	return builder.DFA{
		NumStates:   f.NumStates,
		StartState:  f.StartState,
		Transitions: f.Transitions,
		AcceptIDs:   f.AcceptIDs,
	}, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	dfa, err := loadDFA(dfaPath)
	if err != nil {
		return err
	}

	master, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return fmt.Errorf("decode master-key-hex: %w", err)
	}

	registry := seedregistry.NewStandard(gkBytes, kBytes)
	ctor, err := registry.Get(seedschedule.Mode(seedMode))
	if err != nil {
		return fmt.Errorf("resolve seed mode: %w", err)
	}

	layout := gdfa.LayoutCanonical
	if legacyLayout {
		layout = gdfa.LayoutLegacy
	}

	params := builder.Params{
		AidBits: aidBits,
		Outmax:  outmax,
		Sched:   ctor(master),
		Layout:  layout,
	}

	result, err := builder.Build(dfa, params, nil, "")
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if outDirectory {
		if err := packager.WriteDirectory(outPath, result.Artifact, gzipHeader); err != nil {
			return fmt.Errorf("write artifact directory: %w", err)
		}
		if err := rowalpha.WriteFiles(outPath, result.Partition); err != nil {
			return fmt.Errorf("write row-alphabet: %w", err)
		}
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		if err := packager.WriteContainer(f, result.Artifact); err != nil {
			return fmt.Errorf("write artifact container: %w", err)
		}
		alphaDir := outPath + ".rowalpha"
		if err := rowalpha.WriteFiles(alphaDir, result.Partition); err != nil {
			return fmt.Errorf("write row-alphabet: %w", err)
		}
	}

	fmt.Printf("Compiled GDFA artifact:\n")
	fmt.Printf("  States:     %d\n", result.Artifact.Header.NumStates)
	fmt.Printf("  Outmax:     %d\n", result.Artifact.Header.Outmax)
	fmt.Printf("  Cell bytes: %d\n", result.Artifact.Header.CellBytes)
	fmt.Printf("  Seed mode:  %s\n", seedMode)
	fmt.Printf("  Output:     %s\n", outPath)

	return nil
}
