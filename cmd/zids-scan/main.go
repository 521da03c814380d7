// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.


package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	scanArtifactPath string
	scanDirectory    bool
	scanMasterHex    string
	scanSeedMode     string
	scanGKBytes      int
	scanKBytes       int
	scanMode         string
	scanServerAddr   string
	scanInputPath    string
	scanRulesPath    string
)

var rootCmd = &cobra.Command{
	Use:   "zids-scan",
	Short: "Scan a file or stdin against a compiled GDFA artifact",
	Long: `zids-scan loads a GDFA artifact and its row-alphabet partition, opens
either an in-process (local) or HTTP-backed (remote) chooser, runs the
online engine over the given input, and prints the resulting accept-id
hits - optionally reduced to an ALLOW/BLOCK verdict via a supplied
rule_id -> action map.`,
	Example: `  # Local in-process scan
  zids-scan --artifact artifact.zids --seed-mode master->GK->seed --master-key-hex 00112233... --input sample.txt

  # Remote scan against a running zids-serve
  zids-scan --artifact artifact.zids --mode remote --server-addr http://localhost:8080 --master-key-hex 00112233...`,
	RunE: runScan,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&scanArtifactPath, "artifact", "", "path to the compiled GDFA artifact (required)")
	rootCmd.Flags().BoolVar(&scanDirectory, "directory", false, "treat --artifact as a directory artifact")
	rootCmd.Flags().StringVar(&scanMasterHex, "master-key-hex", "", "hex-encoded master key (required)")
	rootCmd.Flags().StringVar(&scanSeedMode, "seed-mode", "master->GK->seed", "seed derivation mode (master->GK->seed, master->seed)")
	rootCmd.Flags().IntVar(&scanGKBytes, "gk-bytes", 32, "group key length in bytes")
	rootCmd.Flags().IntVar(&scanKBytes, "k-bytes", 16, "seed length in bytes")
	rootCmd.Flags().StringVar(&scanMode, "mode", "local", "chooser mode: local or remote")
	rootCmd.Flags().StringVar(&scanServerAddr, "server-addr", "http://127.0.0.1:8080", "zids-serve base URL, used when --mode=remote")
	rootCmd.Flags().StringVar(&scanInputPath, "input", "", "input file to scan (default: stdin)")
	rootCmd.Flags().StringVar(&scanRulesPath, "rules", "", "optional JSON file mapping rule id -> ALLOW|BLOCK, for ABP reduction")

	_ = rootCmd.MarkFlagRequired("artifact")
	_ = rootCmd.MarkFlagRequired("master-key-hex")
}
