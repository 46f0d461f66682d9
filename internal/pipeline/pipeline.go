// Package pipeline runs preprocessing processors over a batch of items.
package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/indexprep/internal/item"
	"github.com/Aman-CERP/indexprep/internal/processor"
)

// Pipeline applies processors to batches in weight order.
type Pipeline struct {
	procs   []processor.Processor
	workers int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the number of items processed concurrently.
// Values below 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = n
	}
}

// New creates a pipeline. Processors are sorted by weight; equal weights
// keep their given order.
func New(procs []processor.Processor, opts ...Option) *Pipeline {
	sorted := make([]processor.Processor, len(procs))
	copy(sorted, procs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight() < sorted[j].Weight()
	})

	p := &Pipeline{procs: sorted}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Processors returns the processors in execution order.
func (p *Pipeline) Processors() []processor.Processor {
	out := make([]processor.Processor, len(p.procs))
	copy(out, p.procs)
	return out
}

// Workers returns the concurrency limit.
func (p *Pipeline) Workers() int {
	return p.workers
}

// Result summarizes one run.
type Result struct {
	// Items is the number of items left in the batch.
	Items int
	// Removed lists the ids of items dropped by filters, in batch order.
	Removed []string
	// Duration is the wall time of the run.
	Duration time.Duration
}

// Run applies every processor to the batch in place. Filters decide for
// all items before any item is removed. On cancellation Run returns the
// context error and the batch may be partially processed.
func (p *Pipeline) Run(ctx context.Context, b *item.Batch) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for _, proc := range p.procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch pr := proc.(type) {
		case processor.ItemFilter:
			keep := make([]bool, b.Len())
			err := p.forEach(ctx, b, func(i int, it *item.Item) {
				keep[i] = pr.Keep(it)
			})
			if err != nil {
				return nil, err
			}
			removed := b.Retain(keep)
			res.Removed = append(res.Removed, removed...)
			slog.Debug("pipeline_filter_applied",
				slog.String("processor", pr.ID()),
				slog.Int("removed", len(removed)))

		case processor.ItemTransformer:
			err := p.forEach(ctx, b, func(_ int, it *item.Item) {
				pr.TransformItem(it)
			})
			if err != nil {
				return nil, err
			}
			slog.Debug("pipeline_transform_applied",
				slog.String("processor", pr.ID()),
				slog.Int("items", b.Len()))

		default:
			slog.Debug("pipeline_processor_skipped", slog.String("processor", proc.ID()))
		}
	}

	res.Items = b.Len()
	res.Duration = time.Since(start)
	slog.Info("pipeline_run_complete",
		slog.Int("processors", len(p.procs)),
		slog.Int("items", res.Items),
		slog.Int("removed", len(res.Removed)),
		slog.Int("workers", p.workers),
		slog.Duration("duration", res.Duration))

	return res, nil
}

// forEach calls fn for every item with at most p.workers running at once.
func (p *Pipeline) forEach(ctx context.Context, b *item.Batch, fn func(int, *item.Item)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, it := range b.Items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i, it)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
