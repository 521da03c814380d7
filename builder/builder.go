// Package builder implements the offline GDFA compiler: it consumes a
// compiled automaton and security parameters and produces an encrypted,
// permuted gdfa.Artifact plus the row-alphabet partition that binds server
// and client at each online step.
package builder

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/sjieng123/zids/codec"
	"github.com/sjieng123/zids/gdfa"
	"github.com/sjieng123/zids/gdfa/rowalpha"
	"github.com/sjieng123/zids/internal/metrics"
	"github.com/sjieng123/zids/seedschedule"
)

// Params bundles the security and sparsity parameters a build runs under.
type Params struct {
	AidBits   int
	Outmax    int
	Sched     seedschedule.Schedule
	Layout    gdfa.Layout
	TestBuild bool // skips the ModeRandom production check and enables secret persistence; false in production
}

// Result is everything one Build call produces.
type Result struct {
	Artifact  *gdfa.Artifact
	Partition *rowalpha.Partition
}

// Build compiles dfa into an encrypted GDFA artifact under params. When
// secrets is non-nil and params.TestBuild is true, the sampled permutation
// inverse is recorded under buildID for test inspection; production builds
// should pass a nil secrets store.
func Build(dfa DFA, params Params, secrets *SecretStore, buildID string) (*Result, error) {
	if err := dfa.Validate(); err != nil {
		return nil, err
	}
	if params.Sched.Mode == seedschedule.ModeRandom && !params.TestBuild {
		return nil, newBuilderError("seed mode", ErrAmbiguousSeedMode)
	}
	if params.Outmax <= 0 {
		return nil, newBuilderError("outmax", fmt.Errorf("outmax must be positive"))
	}

	n := dfa.NumStates

	permutation, invOldToNew, err := samplePermutation(n)
	if err != nil {
		return nil, newBuilderError("sample permutation", err)
	}

	cellPlan := gdfa.PlanCell(n, params.AidBits)
	if params.AidBits < 0 {
		return nil, newBuilderError("cell layout", ErrCellOverflow)
	}

	colsPerRow := make([]int, n)
	table := make([]byte, n*256)
	groupDest := make([][]int, n) // groupDest[newRow][col] = old destination state

	rb := rowalpha.Builder{Outmax: params.Outmax}
	for newRow := 0; newRow < n; newRow++ {
		oldState := permutation[newRow]
		cols, numCols, err := rb.BuildRow(dfa.Transitions[oldState])
		if err != nil {
			return nil, newBuilderError(fmt.Sprintf("row %d partition", newRow), fmt.Errorf("%w: %v", ErrOutmaxExceeded, err))
		}
		colsPerRow[newRow] = numCols
		copy(table[newRow*256:(newRow+1)*256], cols[:])

		dests := make([]int, numCols)
		seen := make(map[int]int)
		for b := 0; b < 256; b++ {
			dest := dfa.Transitions[oldState][b]
			col := int(cols[b])
			if _, ok := seen[col]; !ok {
				seen[col] = dest
				dests[col] = dest
			}
		}
		groupDest[newRow] = dests
	}

	rows := make([]byte, n*params.Outmax*cellPlan.CellBytes)
	for newRow := 0; newRow < n; newRow++ {
		for col := 0; col < params.Outmax; col++ {
			seed, err := params.Sched.Seed(uint32(newRow), uint32(col))
			if err != nil {
				return nil, newBuilderError(fmt.Sprintf("derive seed(%d,%d)", newRow, col), err)
			}
			pad, err := codec.PRG(seed, "ZIDS|CELL", cellPlan.CellBytes)
			if err != nil {
				return nil, newBuilderError(fmt.Sprintf("expand pad(%d,%d)", newRow, col), err)
			}

			var plain []byte
			if col < colsPerRow[newRow] {
				oldDest := groupDest[newRow][col]
				newNextRow := invOldToNew[oldDest]
				attackID := dfa.AcceptIDs[oldDest]
				if params.AidBits < 32 && attackID >= (1<<uint(params.AidBits)) {
					return nil, newBuilderError(fmt.Sprintf("cell(%d,%d)", newRow, col), ErrAidBitsInsufficient)
				}
				plain, err = cellPlan.Pack(newNextRow, attackID, params.Layout)
				metrics.BuilderCells.WithLabelValues("real").Inc()
			} else {
				// Dummy padding column: packs the zero cell under a seed
				// derived the same way as a real cell, so the ciphertext is
				// structurally indistinguishable from an active column.
				plain, err = cellPlan.Pack(0, 0, params.Layout)
				metrics.BuilderCells.WithLabelValues("dummy").Inc()
			}
			if err != nil {
				return nil, newBuilderError(fmt.Sprintf("pack cell(%d,%d)", newRow, col), err)
			}

			ct := xorBytes(plain, pad)
			start := (newRow*params.Outmax + col) * cellPlan.CellBytes
			copy(rows[start:start+cellPlan.CellBytes], ct)
		}
		metrics.BuilderRows.Inc()
	}

	rowAids := make([]uint32, n)
	for newRow := 0; newRow < n; newRow++ {
		rowAids[newRow] = dfa.AcceptIDs[permutation[newRow]]
	}

	header := gdfa.Header{
		AlphabetSize: 256,
		Outmax:       params.Outmax,
		Cmax:         1,
		NumStates:    n,
		StartRow:     invOldToNew[dfa.StartState],
		Permutation:  permutation,
		CellBytes:    cellPlan.CellBytes,
		RowBytes:     params.Outmax * cellPlan.CellBytes,
		AidBits:      params.AidBits,
	}

	artifact, err := gdfa.New(header, rows, rowAids)
	if err != nil {
		return nil, newBuilderError("assemble artifact", err)
	}

	partition, err := rowalpha.New(n, colsPerRow, table)
	if err != nil {
		return nil, newBuilderError("assemble partition", err)
	}

	if secrets != nil && params.TestBuild {
		secrets.Store(buildID, Secrets{InversePermutation: invOldToNew})
	}

	return &Result{Artifact: artifact, Partition: partition}, nil
}

// samplePermutation draws a uniformly random bijection newRow -> oldState
// over [0,n) via a cryptographic Fisher-Yates shuffle, and returns both the
// forward permutation and its inverse (oldState -> newRow).
func samplePermutation(n int) (permutation []int, inverse []int, err error) {
	permutation = make([]int, n)
	for i := range permutation {
		permutation[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := randIntn(i + 1)
		if err != nil {
			return nil, nil, err
		}
		permutation[i], permutation[j] = permutation[j], permutation[i]
	}

	inverse = make([]int, n)
	for newRow, oldState := range permutation {
		inverse[oldState] = newRow
	}
	return permutation, inverse, nil
}

func randIntn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("builder: randIntn requires n > 0")
	}
	bound := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return 0, fmt.Errorf("builder: sample random index: %w", err)
	}
	return int(v.Int64()), nil
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
