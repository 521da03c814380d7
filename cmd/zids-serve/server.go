package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/sjieng123/zids/config"
	"github.com/sjieng123/zids/gdfa"
	"github.com/sjieng123/zids/gdfa/packager"
	"github.com/sjieng123/zids/gdfa/rowalpha"
	"github.com/sjieng123/zids/health"
	"github.com/sjieng123/zids/internal/logger"
	"github.com/sjieng123/zids/internal/metrics"
	"github.com/sjieng123/zids/seedregistry"
	"github.com/sjieng123/zids/seedschedule"
	"github.com/sjieng123/zids/session"
	"github.com/sjieng123/zids/sessionstore"
	"github.com/sjieng123/zids/sessionstore/postgres"
	"github.com/spf13/cobra"
)

// serveState bundles everything the HTTP handlers need, replacing the
// package-level globals a smaller CLI would reach for so the server stays
// testable in principle (even though this binary never runs under `go test`
// itself).
type serveState struct {
	artifact  *gdfa.Artifact
	partition *rowalpha.Partition
	sched     seedschedule.Schedule
	kBytes    int
	mgr       *session.Manager
	log       logger.Logger
	checker   *health.HealthChecker
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: configDir})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyDefaults(cfg)

	if artifactPath != "" {
		cfg.Artifact.Path = artifactPath
	}

	log := logger.GetDefaultLogger()

	art, err := loadArtifact(cfg.Artifact.Path, cfg.Artifact.Directory)
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}
	part, err := rowalpha.ReadFiles(partitionDir(cfg.Artifact.Path, cfg.Artifact.Directory))
	if err != nil {
		return fmt.Errorf("load row-alphabet: %w", err)
	}

	master, err := hex.DecodeString(cfg.Crypto.MasterKeyHex)
	if err != nil {
		return fmt.Errorf("decode crypto.master_key_hex: %w", err)
	}
	registry := seedregistry.NewStandard(cfg.Crypto.GKBytes, cfg.Crypto.KBits/8)
	ctor, err := registry.Get(seedschedule.Mode(cfg.Crypto.SeedMode))
	if err != nil {
		return fmt.Errorf("resolve crypto.seed_mode: %w", err)
	}
	sched := ctor(master)

	mgr := session.NewManager()
	mgr.SetDefaultConfig(session.Config{
		MaxAge:      cfg.Session.MaxAge,
		IdleTimeout: cfg.Session.IdleTimeout,
	})
	defer mgr.Close()

	digest := art.RowsDigest()
	mgr.SetArtifactDigest(hex.EncodeToString(digest[:]))

	checker := health.NewHealthChecker(0)
	checker.RegisterCheck("artifact", health.ArtifactHealthCheck(func(ctx context.Context) error {
		_, err := art.RowSlice(art.Header.StartRow)
		return err
	}))

	if cfg.Storage.PostgresDSN != "" {
		store, err := postgres.NewStoreFromDSN(context.Background(), cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect session store: %w", err)
		}
		defer store.Close()
		mgr.SetStore(store)
		checker.RegisterCheck("session_store", health.SessionStoreHealthCheck(func() error {
			return store.Ping(context.Background())
		}))
	} else {
		mem := sessionstore.NewInMemory()
		mgr.SetStore(mem)
	}

	st := &serveState{
		artifact:  art,
		partition: part,
		sched:     sched,
		kBytes:    cfg.Crypto.KBits / 8,
		mgr:       mgr,
		log:       log,
		checker:   checker,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", st.handleInitSession)
	mux.HandleFunc("GET /sessions/{id}/rows/{row}", st.handleRowPayload)
	mux.HandleFunc("GET /healthz", st.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())

	addr := listenAddr
	if addr == "" {
		addr = ":8080"
	}

	log.Info("zids-serve listening", logger.String("addr", addr), logger.Int("num_states", art.Header.NumStates))
	return http.ListenAndServe(addr, mux)
}

func applyDefaults(cfg *config.Config) {
	if cfg.Crypto == nil {
		cfg.Crypto = &config.CryptoConfig{KBits: 128, GKBytes: 32, SeedMode: string(seedschedule.ModeMasterToGKToSeed)}
	}
	if cfg.Artifact == nil {
		cfg.Artifact = &config.ArtifactConfig{}
	}
	if cfg.Session == nil {
		cfg.Session = &config.SessionConfig{}
	}
	if cfg.Storage == nil {
		cfg.Storage = &config.StorageConfig{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &config.MetricsConfig{}
	}
}

func loadArtifact(path string, directory bool) (*gdfa.Artifact, error) {
	if directory {
		return packager.ReadDirectory(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return packager.ReadContainer(f)
}

func partitionDir(artifactPath string, directory bool) string {
	if directory {
		return artifactPath
	}
	return artifactPath + ".rowalpha"
}

func parseRow(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("row must be a non-negative integer: %w", err)
	}
	return uint32(v), nil
}
