package experiment

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/san-kum/cyclophase/internal/log"
	"github.com/san-kum/cyclophase/internal/render"
)

type named struct {
	file string
	fig  *render.Figure
}

// writeFigures encodes and stores figs concurrently. Paths keep the order
// of figs.
func (e *Experiment) writeFigures(ctx context.Context, figs []named) ([]string, error) {
	paths := make([]string, len(figs))
	errs := make([]error, len(figs))

	var wg sync.WaitGroup
	for i, f := range figs {
		wg.Add(1)
		go func(idx int, f named) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			paths[idx], errs[idx] = e.store.Write(f.file, f.fig)
			if errs[idx] != nil {
				log.Errorw("figure not written", "file", f.file, "error", errs[idx])
				return
			}
			log.Debugw("figure written", "path", paths[idx])
		}(i, f)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return paths, nil
}
