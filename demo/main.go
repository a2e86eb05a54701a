package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/noorus/hivemind-sub000/cache"
	"github.com/noorus/hivemind-sub000/common"
	"github.com/noorus/hivemind-sub000/common/rw"
	"github.com/noorus/hivemind-sub000/debug_utils"
	"github.com/noorus/hivemind-sub000/demo/config"
	"github.com/noorus/hivemind-sub000/terrain"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the process exit code so deferred cleanup runs first.
func realMain(args []string) int {
	fs := flag.NewFlagSet("terrain-demo", flag.ContinueOnError)
	path := fs.String("config", "demo.yaml", "tool configuration file")
	rebuild := fs.Bool("rebuild", false, "ignore cached results")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *rebuild {
		cfg.Cache.Backend = "none"
	}
	log, err := common.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if _, err := run(cfg, log); err != nil {
		log.Error("terrain analysis failed", zap.Error(err))
		return 1
	}
	return 0
}

// mapHash identifies a map by the contents of all its layers.
func mapHash(cfg *config.MapConfig) (string, error) {
	var parts []string
	for _, p := range []string{cfg.Pathing, cfg.Placement, cfg.Height} {
		if p == "" {
			continue
		}
		h, err := cache.HashFile(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, h)
	}
	r := cfg.Playable
	parts = append(parts, fmt.Sprintf("%d,%d,%d,%d", r.MinX, r.MinY, r.MaxX, r.MaxY))
	return cache.HashBytes([]byte(strings.Join(parts, "|"))), nil
}

func openStore(cfg *config.CacheConfig) (cache.Store, func(), error) {
	switch cfg.Backend {
	case "badger":
		s, err := cache.OpenBadgerStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "file":
		s, err := cache.NewFileStore(cfg.Dir)
		return s, func() {}, err
	}
	return nil, func() {}, nil
}

func run(cfg *config.Config, log *zap.Logger) (*terrain.Map, error) {
	in, err := loadMapInput(&cfg.Map)
	if err != nil {
		return nil, err
	}
	tc := cfg.Analysis.Terrain()
	tc.Logger = log

	store, closeStore, err := openStore(&cfg.Cache)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	var m *terrain.Map
	if store == nil {
		m, err = terrain.Analyze(in, tc)
	} else {
		var hash string
		if hash, err = mapHash(&cfg.Map); err != nil {
			return nil, err
		}
		m, err = terrain.Load(store, hash, in, tc)
	}
	if err != nil {
		return nil, err
	}

	if err := writeOutputs(m, &cfg.Output); err != nil {
		return nil, err
	}
	log.Info("done", zap.Stringer("summary", m.Summary()))
	return m, nil
}

func writeOutputs(m *terrain.Map, cfg *config.OutputConfig) error {
	dump := func(path string, fn func(*terrain.Map, *rw.ReaderWriter) bool) error {
		if path == "" {
			return nil
		}
		w := rw.NewBinWriter()
		if !fn(m, w) {
			return fmt.Errorf("dump %s failed", path)
		}
		return os.WriteFile(path, w.GetWriteBytes(), 0o644)
	}
	if err := dump(cfg.Obj, debug_utils.DumpRegionsToObj); err != nil {
		return err
	}
	if err := dump(cfg.List, debug_utils.DumpRegionList); err != nil {
		return err
	}
	if cfg.Image == "" {
		return nil
	}
	f, err := os.Create(cfg.Image)
	if err != nil {
		return err
	}
	if err := debug_utils.WriteRegionBMP(f, m, cfg.ImageScale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
