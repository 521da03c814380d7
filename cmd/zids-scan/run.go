package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sjieng123/zids/chooser"
	"github.com/sjieng123/zids/engine"
	"github.com/sjieng123/zids/gdfa"
	"github.com/sjieng123/zids/gdfa/packager"
	"github.com/sjieng123/zids/gdfa/rowalpha"
	"github.com/sjieng123/zids/seedregistry"
	"github.com/sjieng123/zids/seedschedule"
	"github.com/sjieng123/zids/session"
)

// runScan wires up an artifact, a row-alphabet partition and a chooser
// (local in-process or remote over HTTP), drives an engine.Engine over the
// requested input, and prints the resulting hits - optionally reduced to an
// ALLOW/BLOCK verdict via --rules.
func runScan(cmd *cobra.Command, args []string) error {
	art, err := loadArtifact(scanArtifactPath, scanDirectory)
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}
	part, err := rowalpha.ReadFiles(partitionDir(scanArtifactPath, scanDirectory))
	if err != nil {
		return fmt.Errorf("load row-alphabet: %w", err)
	}

	master, err := hex.DecodeString(scanMasterHex)
	if err != nil {
		return fmt.Errorf("decode --master-key-hex: %w", err)
	}
	registry := seedregistry.NewStandard(scanGKBytes, scanKBytes)
	ctor, err := registry.Get(seedschedule.Mode(scanSeedMode))
	if err != nil {
		return fmt.Errorf("resolve --seed-mode: %w", err)
	}
	sched := ctor(master)

	var (
		ch        chooser.Chooser
		sessionID string
	)
	switch scanMode {
	case "local":
		ch, sessionID, err = newLocalChooser(sched, part.ColsPerRow, scanKBytes)
	case "remote":
		ch, sessionID, err = newRemoteChooser(scanServerAddr, part.ColsPerRow)
	default:
		return fmt.Errorf("--mode must be local or remote, got %q", scanMode)
	}
	if err != nil {
		return fmt.Errorf("open %s chooser: %w", scanMode, err)
	}

	data, err := readInput(scanInputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	eng := engine.New(art, part, ch, sessionID, scanKBytes)
	if scanErr := eng.Scan(data); scanErr != nil {
		fmt.Fprintf(os.Stderr, "scan stopped early: %v\n", scanErr)
	}

	hits := eng.Hits()
	if scanRulesPath == "" {
		printHits(hits)
		return nil
	}

	idToAction, err := loadRules(scanRulesPath)
	if err != nil {
		return fmt.Errorf("load --rules: %w", err)
	}
	verdict, matched := engine.DecideFromHits(hits, idToAction)
	fmt.Printf("verdict: %s\n", verdict)
	printHits(matched)
	return nil
}

// newLocalChooser constructs an in-process session.Manager + Session sized
// to the artifact's row-alphabet and wraps it in chooser.Local, the same
// path zids-serve takes for its own init_session handler.
func newLocalChooser(sched seedschedule.Schedule, colsPerRow []int, kBytes int) (chooser.Chooser, string, error) {
	mgr := session.NewManager()

	var sess *session.Session
	var err error
	switch sched.Mode {
	case seedschedule.ModeMasterToGKToSeed:
		sess, err = mgr.InitSession(sched, colsPerRow, kBytes)
	case seedschedule.ModeMasterToSeed:
		sess, err = mgr.InitSessionDirect(sched, colsPerRow, kBytes)
	default:
		return nil, "", fmt.Errorf("seed mode %q is not servable (use master->GK->seed or master->seed)", sched.Mode)
	}
	if err != nil {
		return nil, "", err
	}

	return &chooser.Local{Sess: sess, KBytes: kBytes}, sess.GetID(), nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printHits(hits []uint32) {
	if len(hits) == 0 {
		fmt.Println("hits: none")
		return
	}
	fmt.Printf("hits: %v\n", hits)
}

func loadRules(path string) (map[uint32]engine.Verdict, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var strMap map[string]string
	if err := json.Unmarshal(raw, &strMap); err != nil {
		return nil, fmt.Errorf("parse rules json: %w", err)
	}

	idToAction := make(map[uint32]engine.Verdict, len(strMap))
	for k, v := range strMap {
		var id uint32
		if _, err := fmt.Sscanf(k, "%d", &id); err != nil {
			return nil, fmt.Errorf("rule id %q is not a number: %w", k, err)
		}
		idToAction[id] = engine.Verdict(v)
	}
	return idToAction, nil
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
