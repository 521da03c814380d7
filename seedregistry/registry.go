// Package seedregistry registers seed-mode constructors by name, grounded
// on the instance-based half of the teacher's chain provider registry
// (crypto/chain/registry.go). Deliberately omitted is that file's
// package-level global/singleton wrapper: callers construct their own
// Registry and register modes into it explicitly, so that two builder or
// engine instances in the same process never share mutable registration
// state.
package seedregistry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sjieng123/zids/seedschedule"
)

// ErrModeExists is returned by Register when the mode name is already taken.
var ErrModeExists = errors.New("seedregistry: mode already registered")

// ErrModeNotFound is returned by Get when no constructor is registered for
// the requested mode.
var ErrModeNotFound = errors.New("seedregistry: mode not registered")

// Constructor builds a seedschedule.Schedule for a given master key. Modes
// that need additional parameters (gkBytes, kBytes) close over them at
// registration time.
type Constructor func(master []byte) seedschedule.Schedule

// Registry maps seed-mode names to Constructors. Zero value is not usable;
// use New.
type Registry struct {
	mu           sync.RWMutex
	constructors map[seedschedule.Mode]Constructor
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		constructors: make(map[seedschedule.Mode]Constructor),
	}
}

// Register adds a constructor for mode. Registering the same mode twice is
// an error.
func (r *Registry) Register(mode seedschedule.Mode, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[mode]; exists {
		return fmt.Errorf("%w: %s", ErrModeExists, mode)
	}
	r.constructors[mode] = ctor
	return nil
}

// Get resolves mode to a Constructor.
func (r *Registry) Get(mode seedschedule.Mode) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, exists := r.constructors[mode]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrModeNotFound, mode)
	}
	return ctor, nil
}

// List returns the names of every registered mode.
func (r *Registry) List() []seedschedule.Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modes := make([]seedschedule.Mode, 0, len(r.constructors))
	for m := range r.constructors {
		modes = append(modes, m)
	}
	return modes
}

// NewStandard builds a Registry pre-populated with the two production seed
// modes plus ModeRandom. ModeRandom's constructor returns a schedule that
// always fails at Seed() time (seedschedule.ErrRandomModeNotProduction) -
// it is registered only so callers asking for it by name get that specific
// diagnostic instead of ErrModeNotFound.
func NewStandard(gkBytes, kBytes int) *Registry {
	r := New()

	_ = r.Register(seedschedule.ModeMasterToGKToSeed, func(master []byte) seedschedule.Schedule {
		return seedschedule.Schedule{
			Mode:    seedschedule.ModeMasterToGKToSeed,
			Master:  master,
			GKBytes: gkBytes,
			KBytes:  kBytes,
		}
	})

	_ = r.Register(seedschedule.ModeMasterToSeed, func(master []byte) seedschedule.Schedule {
		return seedschedule.Schedule{
			Mode:   seedschedule.ModeMasterToSeed,
			Master: master,
			KBytes: kBytes,
		}
	})

	_ = r.Register(seedschedule.ModeRandom, func(master []byte) seedschedule.Schedule {
		return seedschedule.Schedule{
			Mode:   seedschedule.ModeRandom,
			Master: master,
			KBytes: kBytes,
		}
	})

	return r
}
