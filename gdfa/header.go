package gdfa

// Header is the public, non-secret metadata describing a GDFA artifact.
// It is serialised verbatim as the container/header.json JSON object (see
// package packager), so field names must stay in lock-step with the on-disk
// format.
type Header struct {
	AlphabetSize int   `json:"alphabet_size"`
	Outmax       int   `json:"outmax"`
	Cmax         int   `json:"cmax"`
	NumStates    int   `json:"num_states"`
	StartRow     int   `json:"start_row"`
	Permutation  []int `json:"permutation"`
	CellBytes    int   `json:"cell_bytes"`
	RowBytes     int   `json:"row_bytes"`
	AidBits      int   `json:"aid_bits"`
}

// Validate checks the structural invariants a Header must satisfy before
// an artifact built around it can be trusted: fixed alphabet size, cmax=1,
// row_bytes a whole multiple of cell_bytes, a start row in range, and (if
// present) a true bijection permutation.
func (h *Header) Validate() error {
	if h.AlphabetSize != 256 {
		return newArtifactError("alphabet_size", ErrInvalidAlphabetSize)
	}
	if h.Cmax != 1 {
		return newArtifactError("cmax", ErrInvalidCmax)
	}
	if h.CellBytes <= 0 || h.RowBytes <= 0 {
		return newArtifactError("cell/row bytes must be positive", nil)
	}
	if h.RowBytes%h.CellBytes != 0 {
		return newArtifactError("row_bytes/cell_bytes", ErrRowBytesNotMultiple)
	}
	if h.Outmax <= 0 || h.RowBytes/h.CellBytes != h.Outmax {
		return newArtifactError("outmax disagrees with row_bytes/cell_bytes", nil)
	}
	if h.NumStates <= 0 {
		return newArtifactError("num_states must be positive", nil)
	}
	if h.StartRow < 0 || h.StartRow >= h.NumStates {
		return newArtifactError("start_row", ErrRowOutOfRange)
	}
	if h.AidBits < 0 {
		return newArtifactError("aid_bits must be non-negative", nil)
	}
	if len(h.Permutation) != 0 {
		if len(h.Permutation) != h.NumStates {
			return newArtifactError("permutation length must equal num_states", nil)
		}
		seen := make([]bool, h.NumStates)
		for _, old := range h.Permutation {
			if old < 0 || old >= h.NumStates || seen[old] {
				return newArtifactError("permutation", ErrInvalidPermutation)
			}
			seen[old] = true
		}
	}
	return nil
}

// Permutation is stored new_row -> old_state (see Header.Permutation), so
// recovering old_state from new_row ("inv_permute" in the component design)
// is a direct, precomputed-at-load-time lookup rather than an array
// inversion: the only inversion happened once, offline, when the builder
// sampled the permutation in the first place.
