package rowalpha

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// fileHeader is the row_alph.json envelope described in SPEC_FULL.md §6:
// num_rows, cols_per_row and a fixed format tag identifying the single8
// byte-table layout row_alph.bin uses.
type fileHeader struct {
	NumRows    int    `json:"num_rows"`
	ColsPerRow []int  `json:"cols_per_row"`
	Format     string `json:"format"`
}

const formatSingle8 = "single8"

// WriteFiles writes p as row_alph.json + row_alph.bin under dir, creating
// dir if necessary.
func WriteFiles(dir string, p *Partition) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("rowalpha: mkdir %s: %w", dir, err)
	}

	h := fileHeader{NumRows: p.NumRows, ColsPerRow: p.ColsPerRow, Format: formatSingle8}
	raw, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("rowalpha: marshal row_alph.json: %w", err)
	}

	jsonPath := filepath.Join(dir, "row_alph.json")
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return fmt.Errorf("rowalpha: write %s: %w", jsonPath, err)
	}

	binPath := filepath.Join(dir, "row_alph.bin")
	if err := os.WriteFile(binPath, p.Table, 0o644); err != nil {
		return fmt.Errorf("rowalpha: write %s: %w", binPath, err)
	}

	return nil
}

// ReadFiles loads a Partition from dir's row_alph.json + row_alph.bin.
func ReadFiles(dir string) (*Partition, error) {
	jsonPath := filepath.Join(dir, "row_alph.json")
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("rowalpha: read %s: %w", jsonPath, err)
	}

	var h fileHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("rowalpha: unmarshal %s: %w", jsonPath, err)
	}
	if h.Format != formatSingle8 {
		return nil, fmt.Errorf("rowalpha: unsupported row-alphabet format %q", h.Format)
	}

	binPath := filepath.Join(dir, "row_alph.bin")
	table, err := os.ReadFile(binPath)
	if err != nil {
		return nil, fmt.Errorf("rowalpha: read %s: %w", binPath, err)
	}

	return New(h.NumRows, h.ColsPerRow, table)
}
