package gdfa

import "fmt"

// Layout names a cell bit-layout. Canonical is [next_row][attack_id]; Legacy
// is the field-swapped [attack_id][next_row] tolerated only when an engine
// explicitly opts into it (see design note on the two cell layouts).
type Layout int

const (
	// LayoutCanonical packs [next_row : row_bits][attack_id : aid_bits].
	LayoutCanonical Layout = iota
	// LayoutLegacy packs [attack_id : aid_bits][next_row : row_bits].
	LayoutLegacy
)

// CellPlan describes the bit/byte geometry of one cell, computed once from
// a Header so pack/unpack never recompute bit widths per call.
type CellPlan struct {
	RowBits   uint
	AidBits   uint
	CellBytes int
	NumStates int
}

// PlanCell derives row_bits from numStates (ceil(log2(numStates)), minimum
// 1) and returns the CellPlan for the given aidBits and numStates.
func PlanCell(numStates, aidBits int) CellPlan {
	rowBits := uint(1)
	for (1 << rowBits) < numStates {
		rowBits++
	}
	totalBits := int(rowBits) + aidBits
	cellBytes := (totalBits + 7) / 8
	if cellBytes == 0 {
		cellBytes = 1
	}
	return CellPlan{RowBits: rowBits, AidBits: uint(aidBits), CellBytes: cellBytes, NumStates: numStates}
}

// Pack encodes (nextRow, attackID) into a CellBytes-length plaintext buffer
// under the requested layout.
func (p CellPlan) Pack(nextRow int, attackID uint32, layout Layout) ([]byte, error) {
	if nextRow < 0 || nextRow >= p.NumStates {
		return nil, fmt.Errorf("gdfa: next_row %d out of range [0,%d)", nextRow, p.NumStates)
	}
	if p.AidBits < 32 && attackID >= (1<<p.AidBits) {
		return nil, fmt.Errorf("gdfa: attack_id %d exceeds aid_bits=%d", attackID, p.AidBits)
	}

	buf := make([]byte, p.CellBytes)
	switch layout {
	case LayoutCanonical:
		packBitsLE(buf, uint64(nextRow), 0, p.RowBits)
		packBitsLE(buf, uint64(attackID), p.RowBits, p.AidBits)
	case LayoutLegacy:
		packBitsLE(buf, uint64(attackID), 0, p.AidBits)
		packBitsLE(buf, uint64(nextRow), p.AidBits, p.RowBits)
	default:
		return nil, fmt.Errorf("gdfa: unknown layout %d", layout)
	}
	return buf, nil
}

// Unpack decodes a plaintext cell buffer into (nextRow, attackID) under the
// requested layout. It does not itself validate nextRow against NumStates;
// callers (the online engine) treat an out-of-range nextRow as a decode
// failure for this candidate and try the next one.
func (p CellPlan) Unpack(buf []byte, layout Layout) (nextRow int, attackID uint32, err error) {
	if len(buf) < p.CellBytes {
		return 0, 0, fmt.Errorf("gdfa: cell buffer too short: %d < %d", len(buf), p.CellBytes)
	}
	switch layout {
	case LayoutCanonical:
		nextRow = int(unpackBitsLE(buf, 0, p.RowBits))
		attackID = uint32(unpackBitsLE(buf, p.RowBits, p.AidBits))
	case LayoutLegacy:
		attackID = uint32(unpackBitsLE(buf, 0, p.AidBits))
		nextRow = int(unpackBitsLE(buf, p.AidBits, p.RowBits))
	default:
		return 0, 0, fmt.Errorf("gdfa: unknown layout %d", layout)
	}
	return nextRow, attackID, nil
}

// packBitsLE writes the low nBits of value into buf starting at bit offset
// shift, little-endian bit order within the byte stream.
func packBitsLE(buf []byte, value uint64, shift, nBits uint) {
	for i := uint(0); i < nBits; i++ {
		bitPos := shift + i
		byteIdx := bitPos / 8
		if int(byteIdx) >= len(buf) {
			return
		}
		bit := (value >> i) & 1
		buf[byteIdx] |= byte(bit) << (bitPos % 8)
	}
}

// unpackBitsLE reads nBits starting at bit offset shift from buf.
func unpackBitsLE(buf []byte, shift, nBits uint) uint64 {
	var value uint64
	for i := uint(0); i < nBits; i++ {
		bitPos := shift + i
		byteIdx := bitPos / 8
		if int(byteIdx) >= len(buf) {
			break
		}
		bit := (buf[byteIdx] >> (bitPos % 8)) & 1
		value |= uint64(bit) << i
	}
	return value
}
