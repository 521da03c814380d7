package builder

import "errors"

// BuilderError wraps a failure at a named build step with the underlying
// sentinel, mirroring the component-scoped error types used throughout the
// rest of the stack (gdfa.ArtifactError, session.SessionError).
type BuilderError struct {
	Step string
	Err  error
}

func (e *BuilderError) Error() string { return "builder: " + e.Step + ": " + e.Err.Error() }
func (e *BuilderError) Unwrap() error { return e.Err }

func newBuilderError(step string, err error) *BuilderError {
	return &BuilderError{Step: step, Err: err}
}

var (
	// ErrNotTotalTransition is returned when a state's transition table does
	// not cover all 256 input bytes.
	ErrNotTotalTransition = errors.New("builder: transition function is not total over 0..255")
	// ErrOutmaxExceeded is returned when a row's destination-state group
	// count exceeds the configured outmax.
	ErrOutmaxExceeded = errors.New("builder: row group count exceeds outmax")
	// ErrAidBitsInsufficient is returned when aid_bits cannot represent an
	// accept id present in the compiled automaton.
	ErrAidBitsInsufficient = errors.New("builder: aid_bits insufficient for an attack id")
	// ErrCellOverflow is returned when the planned cell layout cannot hold
	// next_row and attack_id together (a negative aid_bits).
	ErrCellOverflow = errors.New("builder: cell bit-layout overflow")
	// ErrAmbiguousSeedMode is returned when ModeRandom is requested outside
	// a test build.
	ErrAmbiguousSeedMode = errors.New("builder: ambiguous seed mode: random seeds are not supported for production builds")
)
