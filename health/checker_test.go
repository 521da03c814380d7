package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckReportsHealthy(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.RegisterCheck("artifact", ArtifactHealthCheck(func(ctx context.Context) error { return nil }))

	result, err := h.Check(context.Background(), "artifact")
	require.NoError(t, err)
	require.Equal(t, StatusHealthy, result.Status)
}

func TestCheckReportsUnhealthyOnError(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.RegisterCheck("session_store", SessionStoreHealthCheck(func() error { return errors.New("store unreachable") }))

	result, err := h.Check(context.Background(), "session_store")
	require.NoError(t, err)
	require.Equal(t, StatusUnhealthy, result.Status)
}

func TestGetOverallStatusUnhealthyWinsOverHealthy(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.RegisterCheck("ok", ArtifactHealthCheck(func(ctx context.Context) error { return nil }))
	h.RegisterCheck("bad", ArtifactHealthCheck(func(ctx context.Context) error { return errors.New("boom") }))

	require.Equal(t, StatusUnhealthy, h.GetOverallStatus(context.Background()))
}

func TestCheckUnknownNameErrors(t *testing.T) {
	h := NewHealthChecker(time.Second)
	_, err := h.Check(context.Background(), "nope")
	require.Error(t, err)
}
