package packager

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjieng123/zids/gdfa"
)

func sampleArtifact(t *testing.T) *gdfa.Artifact {
	t.Helper()
	h := gdfa.Header{
		AlphabetSize: 256,
		Outmax:       2,
		Cmax:         1,
		NumStates:    4,
		StartRow:     0,
		CellBytes:    2,
		RowBytes:     4,
		AidBits:      8,
	}
	rows := make([]byte, h.NumStates*h.RowBytes)
	for i := range rows {
		rows[i] = byte(i)
	}
	art, err := gdfa.New(h, rows, nil)
	require.NoError(t, err)
	return art
}

func TestContainerRoundTrip(t *testing.T) {
	art := sampleArtifact(t)

	var buf bytes.Buffer
	require.NoError(t, WriteContainer(&buf, art))

	got, err := ReadContainer(&buf)
	require.NoError(t, err)
	require.Equal(t, art.Header, got.Header)
	require.Equal(t, art.Rows, got.Rows)
}

func TestContainerRejectsBadMagic(t *testing.T) {
	art := sampleArtifact(t)
	var buf bytes.Buffer
	require.NoError(t, WriteContainer(&buf, art))

	corrupted := buf.Bytes()
	corrupted[0] = 'X'
	_, err := ReadContainer(bytes.NewReader(corrupted))
	require.ErrorIs(t, err, gdfa.ErrBadMagic)
}

func TestContainerRejectsDigestMismatch(t *testing.T) {
	art := sampleArtifact(t)
	var buf bytes.Buffer
	require.NoError(t, WriteContainer(&buf, art))

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF
	_, err := ReadContainer(bytes.NewReader(corrupted))
	require.ErrorIs(t, err, gdfa.ErrDigestMismatch)
}

func TestDirectoryRoundTripPlain(t *testing.T) {
	art := sampleArtifact(t)
	dir := filepath.Join(t.TempDir(), "artifact")

	require.NoError(t, WriteDirectory(dir, art, false))

	got, err := ReadDirectory(dir)
	require.NoError(t, err)
	require.Equal(t, art.Header, got.Header)
	require.Equal(t, art.Rows, got.Rows)
}

func TestDirectoryRoundTripGzipped(t *testing.T) {
	art := sampleArtifact(t)
	dir := filepath.Join(t.TempDir(), "artifact-gz")

	require.NoError(t, WriteDirectory(dir, art, true))

	got, err := ReadDirectory(dir)
	require.NoError(t, err)
	require.Equal(t, art.Header, got.Header)
	require.Equal(t, art.Rows, got.Rows)
}

func TestDirectoryRoundTripWithRowAids(t *testing.T) {
	h := gdfa.Header{
		AlphabetSize: 256,
		Outmax:       2,
		Cmax:         1,
		NumStates:    4,
		StartRow:     0,
		CellBytes:    2,
		RowBytes:     4,
		AidBits:      8,
	}
	rows := make([]byte, h.NumStates*h.RowBytes)
	for i := range rows {
		rows[i] = byte(i)
	}
	rowAids := []uint32{0, 7, 0, 3}
	art, err := gdfa.New(h, rows, rowAids)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "artifact-aids")
	require.NoError(t, WriteDirectory(dir, art, false))

	got, err := ReadDirectory(dir)
	require.NoError(t, err)
	require.Equal(t, art.RowAids, got.RowAids)
}

func TestDirectoryRoundTripWithoutRowAids(t *testing.T) {
	art := sampleArtifact(t)
	dir := filepath.Join(t.TempDir(), "artifact-no-aids")

	require.NoError(t, WriteDirectory(dir, art, false))

	got, err := ReadDirectory(dir)
	require.NoError(t, err)
	require.Nil(t, got.RowAids)
}
