package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/timberland/blocksmith/internal/config"
	"github.com/timberland/blocksmith/internal/generate"
	"github.com/timberland/blocksmith/internal/history"
	"github.com/timberland/blocksmith/internal/llm"
	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/media"
	"github.com/timberland/blocksmith/internal/ratelimit"
)

// app bundles the wired pipeline for a command invocation.
type app struct {
	cfg     config.Config
	store   *manifest.Store
	factory *llm.Factory
	gen     *generate.Generator
	history *history.Store

	closeFn func()
}

func (a *app) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// newApp loads config and wires the pipeline. When withDB is true the
// SQLite state database is opened too, enabling history and local
// attachment resolution.
func newApp(withDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	builder := manifest.NewBuilder(version, cfg.Schema.GroupDirs, cfg.Schema.CatalogDirs,
		cfg.Generation.IncludeLayouts, cfg.Generation.IncludePatterns)
	store := manifest.NewStore(builder, filepath.Join(cfg.StateDir, "manifest.json"), cfg.Schema.CacheTTL())

	a := &app{
		cfg:     cfg,
		store:   store,
		factory: llm.NewFactory(cfg.Providers),
	}

	var resolver media.Resolver = media.Nop{}
	if withDB {
		db, err := history.Open(filepath.Join(cfg.StateDir, "blocksmith.db"))
		if err != nil {
			return nil, err
		}
		a.history = history.NewStore(db)
		a.closeFn = func() { _ = db.Close() }
		resolver = media.NewLibrary(db)
	}

	a.gen = generate.New(cfg, version, store, ratelimit.New(cfg.RateLimit), a.factory, resolver, a.history)
	return a, nil
}

// readInput reads a file argument, with "-" meaning stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
