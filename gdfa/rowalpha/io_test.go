package rowalpha

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFilesReadFilesRoundTrip(t *testing.T) {
	table := make([]byte, 512)
	table[256] = 1 // row 1, byte 0 -> col 1

	p, err := New(2, []int{1, 2}, table)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "partition")
	require.NoError(t, WriteFiles(dir, p))

	got, err := ReadFiles(dir)
	require.NoError(t, err)
	require.Equal(t, p.NumRows, got.NumRows)
	require.Equal(t, p.ColsPerRow, got.ColsPerRow)
	require.Equal(t, p.Table, got.Table)
}

func TestReadFilesRejectsUnknownFormat(t *testing.T) {
	table := make([]byte, 256)
	p, err := New(1, []int{1}, table)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "partition")
	require.NoError(t, WriteFiles(dir, p))

	// Corrupt the format tag to simulate a future incompatible layout.
	jsonPath := filepath.Join(dir, "row_alph.json")
	raw := `{"num_rows":1,"cols_per_row":[1],"format":"multi-map"}`
	require.NoError(t, os.WriteFile(jsonPath, []byte(raw), 0o644))

	_, err = ReadFiles(dir)
	require.Error(t, err)
}
