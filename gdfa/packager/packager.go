// Package packager implements the two on-disk representations of a GDFA
// artifact: a single-file container (magic + length-prefixed JSON header +
// rows + digest) and a directory form (header.json [+.gz] + rows.bin),
// grounded on the length-prefixed framing convention the teacher's
// session/manager.go uses for its own serialised state, adapted here to a
// binary container rather than JSON-only.
package packager

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sjieng123/zids/gdfa"
)

// Magic is the fixed 7-byte container preamble.
var Magic = [7]byte{'Z', 'I', 'D', 'S', 'v', '1', 0}

// WriteContainer serialises art as magic || hlen(4, BE) || header JSON ||
// rows || sha256(rows) into w.
func WriteContainer(w io.Writer, art *gdfa.Artifact) error {
	headerJSON, err := json.Marshal(art.Header)
	if err != nil {
		return fmt.Errorf("packager: marshal header: %w", err)
	}

	if _, err := w.Write(Magic[:]); err != nil {
		return fmt.Errorf("packager: write magic: %w", err)
	}

	var hlen [4]byte
	binary.BigEndian.PutUint32(hlen[:], uint32(len(headerJSON)))
	if _, err := w.Write(hlen[:]); err != nil {
		return fmt.Errorf("packager: write header length: %w", err)
	}

	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("packager: write header: %w", err)
	}

	if _, err := w.Write(art.Rows); err != nil {
		return fmt.Errorf("packager: write rows: %w", err)
	}

	digest := art.RowsDigest()
	if _, err := w.Write(digest[:]); err != nil {
		return fmt.Errorf("packager: write digest: %w", err)
	}

	return nil
}

// ReadContainer parses the container format produced by WriteContainer,
// verifying the magic, header JSON, and rows digest.
func ReadContainer(r io.Reader) (*gdfa.Artifact, error) {
	var magic [7]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("packager: read magic: %w", err)
	}
	if magic != Magic {
		return nil, gdfa.ErrBadMagic
	}

	var hlenBuf [4]byte
	if _, err := io.ReadFull(r, hlenBuf[:]); err != nil {
		return nil, fmt.Errorf("packager: read header length: %w", err)
	}
	hlen := binary.BigEndian.Uint32(hlenBuf[:])

	headerJSON := make([]byte, hlen)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("packager: read header: %w", err)
	}

	var header gdfa.Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("packager: unmarshal header: %w", err)
	}

	rowsLen := header.NumStates * header.RowBytes
	rows := make([]byte, rowsLen)
	if _, err := io.ReadFull(r, rows); err != nil {
		return nil, fmt.Errorf("packager: read rows: %w", err)
	}

	var wantDigest [32]byte
	if _, err := io.ReadFull(r, wantDigest[:]); err != nil {
		return nil, fmt.Errorf("packager: read digest: %w", err)
	}
	gotDigest := sha256.Sum256(rows)
	if gotDigest != wantDigest {
		return nil, gdfa.ErrDigestMismatch
	}

	return gdfa.New(header, rows, nil)
}

// directoryHeader is the JSON envelope written to header.json, carrying the
// rows digest alongside the GDFA header fields so a directory artifact's
// integrity can be checked without re-deriving anything from rows.bin.
type directoryHeader struct {
	gdfa.Header
	RowsSHA256 string `json:"rows_sha256"`
}

// rowAidsFile is the on-disk name of the optional row-accept table
// (SPEC_FULL.md §6: num_states * uint32_le, zero = non-accepting).
const rowAidsFile = "row_aids.bin"

// WriteDirectory writes header.json (gzipped when gzipHeader is true),
// rows.bin, and - when art carries one - row_aids.bin into dir, creating it
// if necessary.
func WriteDirectory(dir string, art *gdfa.Artifact, gzipHeader bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("packager: mkdir %s: %w", dir, err)
	}

	digest := art.RowsDigest()
	dh := directoryHeader{Header: art.Header, RowsSHA256: hex.EncodeToString(digest[:])}
	raw, err := json.Marshal(dh)
	if err != nil {
		return fmt.Errorf("packager: marshal directory header: %w", err)
	}

	headerPath := filepath.Join(dir, "header.json")
	if gzipHeader {
		headerPath += ".gz"
		f, err := os.Create(headerPath)
		if err != nil {
			return fmt.Errorf("packager: create %s: %w", headerPath, err)
		}
		defer f.Close()
		gw := gzip.NewWriter(f)
		if _, err := gw.Write(raw); err != nil {
			return fmt.Errorf("packager: gzip header: %w", err)
		}
		if err := gw.Close(); err != nil {
			return fmt.Errorf("packager: close gzip header: %w", err)
		}
	} else {
		if err := os.WriteFile(headerPath, raw, 0o644); err != nil {
			return fmt.Errorf("packager: write %s: %w", headerPath, err)
		}
	}

	rowsPath := filepath.Join(dir, "rows.bin")
	if err := os.WriteFile(rowsPath, art.Rows, 0o644); err != nil {
		return fmt.Errorf("packager: write %s: %w", rowsPath, err)
	}

	if art.RowAids != nil {
		buf := make([]byte, len(art.RowAids)*4)
		for i, aid := range art.RowAids {
			binary.LittleEndian.PutUint32(buf[i*4:], aid)
		}
		aidsPath := filepath.Join(dir, rowAidsFile)
		if err := os.WriteFile(aidsPath, buf, 0o644); err != nil {
			return fmt.Errorf("packager: write %s: %w", aidsPath, err)
		}
	}

	return nil
}

// ReadDirectory loads an artifact from dir, preferring header.json.gz over
// header.json when both are present, and verifies rows.bin against the
// stored rows_sha256.
func ReadDirectory(dir string) (*gdfa.Artifact, error) {
	gzPath := filepath.Join(dir, "header.json.gz")
	plainPath := filepath.Join(dir, "header.json")

	var raw []byte
	if data, err := os.ReadFile(gzPath); err == nil {
		gr, gzErr := gzip.NewReader(bytes.NewReader(data))
		if gzErr != nil {
			return nil, fmt.Errorf("packager: open gzip header: %w", gzErr)
		}
		defer gr.Close()
		raw, err = io.ReadAll(gr)
		if err != nil {
			return nil, fmt.Errorf("packager: read gzip header: %w", err)
		}
	} else {
		var readErr error
		raw, readErr = os.ReadFile(plainPath)
		if readErr != nil {
			return nil, fmt.Errorf("packager: read header.json: %w", readErr)
		}
	}

	var dh directoryHeader
	if err := json.Unmarshal(raw, &dh); err != nil {
		return nil, fmt.Errorf("packager: unmarshal directory header: %w", err)
	}

	rowsPath := filepath.Join(dir, "rows.bin")
	rows, err := os.ReadFile(rowsPath)
	if err != nil {
		return nil, fmt.Errorf("packager: read rows.bin: %w", err)
	}

	gotDigest := sha256.Sum256(rows)
	wantDigest, err := hex.DecodeString(dh.RowsSHA256)
	if err != nil || !bytes.Equal(gotDigest[:], wantDigest) {
		return nil, gdfa.ErrDigestMismatch
	}

	var rowAids []uint32
	aidsPath := filepath.Join(dir, rowAidsFile)
	if buf, err := os.ReadFile(aidsPath); err == nil {
		if len(buf)%4 != 0 {
			return nil, fmt.Errorf("packager: %s length %d not a multiple of 4", aidsPath, len(buf))
		}
		rowAids = make([]uint32, len(buf)/4)
		for i := range rowAids {
			rowAids[i] = binary.LittleEndian.Uint32(buf[i*4:])
		}
	}

	return gdfa.New(dh.Header, rows, rowAids)
}
