package cppdex

import (
	"context"
	"fmt"
	"time"

	"github.com/hward/cppdex/internal/config"
	"github.com/hward/cppdex/internal/export"
	"github.com/hward/cppdex/internal/frontend"
	"github.com/hward/cppdex/internal/resolve"
	"github.com/hward/cppdex/internal/sym"
)

// Engine orchestrates the indexing pipeline: translation-unit enumeration,
// parallel traversal, post-traversal resolution, and export.
type Engine struct {
	cfg *config.Config
	idx *sym.Index
}

// Option configures an Engine.
type Option func(*config.Config)

// WithJobs bounds the traversal worker pool. Zero or negative keeps the
// default of one worker per CPU.
func WithJobs(n int) Option {
	return func(c *config.Config) {
		if n > 0 {
			c.Jobs = n
		}
	}
}

// WithLimit caps how many translation units are processed. Zero means no
// cap.
func WithLimit(n int) Option {
	return func(c *config.Config) {
		if n > 0 {
			c.Limit = n
		}
	}
}

// New creates an Engine over a finalized configuration.
func New(cfg *config.Config, opts ...Option) *Engine {
	for _, opt := range opts {
		opt(cfg)
	}
	return &Engine{cfg: cfg, idx: sym.NewIndex()}
}

// Index returns the symbol tables. Before Run completes they are empty;
// afterwards they are fully resolved and safe for concurrent reads.
func (e *Engine) Index() *sym.Index {
	return e.idx
}

// Run executes the pipeline. A missing or malformed compilation database
// is fatal; individual translation-unit failures are logged and skipped,
// and their count is reported in the returned stats.
func (e *Engine) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	units, err := e.enumerateUnits()
	if err != nil {
		return nil, err
	}
	if e.cfg.Limit > 0 && len(units) > e.cfg.Limit {
		units = units[:e.cfg.Limit]
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no translation units found under %s", e.cfg.RootDir)
	}

	failed := e.traverse(ctx, units)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolve.Run(e.idx)

	return e.stats(len(units), failed, time.Since(start)), nil
}

func (e *Engine) enumerateUnits() ([]frontend.Unit, error) {
	if e.cfg.CompileCommands != "" {
		return frontend.LoadCompileCommands(e.cfg.CompileCommands)
	}
	return frontend.DiscoverUnits(e.cfg.RootDir)
}

// Export writes the resolved index to a SQLite database at dbPath.
func (e *Engine) Export(dbPath string) error {
	store, err := export.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("cppdex: create store: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("cppdex: migrate: %w", err)
	}
	if err := store.Write(e.idx); err != nil {
		return fmt.Errorf("cppdex: %w", err)
	}
	return nil
}
