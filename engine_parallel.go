package cppdex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/hward/cppdex/internal/frontend"
	"github.com/hward/cppdex/internal/mapper"
)

// traverse parses every unit with a worker pool and commits observations
// into the shared index. Each worker owns one frontend parser; the symbol
// tables take commits from all workers concurrently. The call returns only
// after every worker has drained, so resolution never races traversal.
// The return value is the number of units that failed.
func (e *Engine) traverse(ctx context.Context, units []frontend.Unit) int {
	numWorkers := e.cfg.Jobs
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(units) {
		numWorkers = len(units)
	}

	workCh := make(chan frontend.Unit, len(units))
	for _, u := range units {
		workCh <- u
	}
	close(workCh)

	type result struct {
		unit frontend.Unit
		err  error
	}
	resultCh := make(chan result, len(units))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parser := frontend.NewParser()
			for unit := range workCh {
				if ctx.Err() != nil {
					return
				}
				resultCh <- result{unit: unit, err: e.traverseUnit(ctx, parser, unit)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	failed := 0
	for res := range resultCh {
		if res.err != nil {
			failed++
			slog.Warn("skipping translation unit", "file", res.unit.File, "error", res.err)
		}
	}
	return failed
}

// traverseUnit parses one unit and maps its observations. A panic inside
// the frontend poisons only this unit, not the run.
func (e *Engine) traverseUnit(ctx context.Context, parser *frontend.Parser, unit frontend.Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while traversing: %v", r)
		}
	}()

	src, err := os.ReadFile(unit.File)
	if err != nil {
		return fmt.Errorf("read unit: %w", err)
	}
	return parser.ParseUnit(ctx, unit.File, src, func(d *frontend.Decl) {
		mapper.Apply(e.idx, e.cfg, d)
	})
}
