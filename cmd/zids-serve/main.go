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
	configDir    string
	listenAddr   string
	artifactPath string
)

var rootCmd = &cobra.Command{
	Use:   "zids-serve",
	Short: "GDFA session server - serves init_session/ot_row_payload over HTTP",
	Long: `zids-serve loads a compiled GDFA artifact and row-alphabet partition,
runs a session manager over them, and exposes init_session and
ot_row_payload as an HTTP API, alongside health and Prometheus metrics
endpoints.`,
	RunE: runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&configDir, "config-dir", "config", "directory holding environment YAML config files")
	rootCmd.Flags().StringVar(&listenAddr, "listen-addr", "", "override the HTTP listen address (default :8080)")
	rootCmd.Flags().StringVar(&artifactPath, "artifact", "", "override the configured artifact path")
}
