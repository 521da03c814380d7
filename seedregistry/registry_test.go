package seedregistry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjieng123/zids/seedschedule"
)

func TestRegisterAndGet(t *testing.T) {
	r := New()
	err := r.Register(seedschedule.ModeMasterToSeed, func(master []byte) seedschedule.Schedule {
		return seedschedule.Schedule{Mode: seedschedule.ModeMasterToSeed, Master: master, KBytes: 16}
	})
	require.NoError(t, err)

	ctor, err := r.Get(seedschedule.ModeMasterToSeed)
	require.NoError(t, err)
	require.NotNil(t, ctor)
}

func TestRegisterDuplicateRejected(t *testing.T) {
	r := New()
	ctor := func(master []byte) seedschedule.Schedule { return seedschedule.Schedule{} }
	require.NoError(t, r.Register(seedschedule.ModeMasterToSeed, ctor))
	err := r.Register(seedschedule.ModeMasterToSeed, ctor)
	require.ErrorIs(t, err, ErrModeExists)
}

func TestGetUnknownMode(t *testing.T) {
	r := New()
	_, err := r.Get(seedschedule.ModeMasterToSeed)
	require.ErrorIs(t, err, ErrModeNotFound)
}

func TestNewStandardRegistersThreeModes(t *testing.T) {
	r := NewStandard(32, 16)
	modes := r.List()
	require.Len(t, modes, 3)

	ctor, err := r.Get(seedschedule.ModeRandom)
	require.NoError(t, err)
	sched := ctor([]byte("master"))
	_, err = sched.Seed(0, 0)
	require.ErrorIs(t, err, seedschedule.ErrRandomModeNotProduction)
}

func TestNewStandardProductionModesWork(t *testing.T) {
	r := NewStandard(32, 16)

	ctor, err := r.Get(seedschedule.ModeMasterToGKToSeed)
	require.NoError(t, err)
	sched := ctor([]byte("0123456789abcdef"))
	seed, err := sched.Seed(1, 0)
	require.NoError(t, err)
	require.Len(t, seed, 16)
}

func TestRegistryInstancesAreIndependent(t *testing.T) {
	// Two registries in the same process must not observe each other's
	// registrations: there is no package-level global state to leak through.
	r1 := New()
	r2 := New()

	require.NoError(t, r1.Register(seedschedule.ModeMasterToSeed, func(master []byte) seedschedule.Schedule {
		return seedschedule.Schedule{}
	}))

	_, err := r2.Get(seedschedule.ModeMasterToSeed)
	require.ErrorIs(t, err, ErrModeNotFound)
}
