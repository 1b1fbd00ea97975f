package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hellosteadman/ghostexporter/app/feed"
)

// Assembler streams items through a transformer into a single document.
type Assembler struct {
	transformer Transformer
	workers     int
	now         func() time.Time
}

type AssemblerOption func(*Assembler)

// WithWorkers transforms up to n items concurrently. Output order still
// follows input order.
func WithWorkers(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAssembler(transformer Transformer, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		transformer: transformer,
		workers:     1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Assemble pulls every item once and folds the transformed records into a
// document. The first error aborts the whole document.
func (a *Assembler) Assemble(ctx context.Context, items feed.Items) (*Document, error) {
	data := NewData()
	start := time.Now()

	var (
		count int
		err   error
	)
	if a.workers > 1 {
		count, err = a.assembleParallel(ctx, items, data)
	} else {
		count, err = a.assembleSequential(ctx, items, data)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Document assembled", "items", count, "workers", a.workers, "duration", time.Since(start))

	return &Document{
		DB: []Database{{
			Meta: Meta{
				ExportedOn: a.now().UnixMilli(),
				Version:    a.transformer.ExportVersion(),
			},
			Data: data,
		}},
	}, nil
}

// Write assembles the document and writes it to w in one call. Nothing is
// written when assembly fails.
func (a *Assembler) Write(ctx context.Context, w io.Writer, items feed.Items) error {
	doc, err := a.Assemble(ctx, items)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

func (a *Assembler) assembleSequential(ctx context.Context, items feed.Items, data *Data) (int, error) {
	count := 0

	for item, err := range items(ctx) {
		if err != nil {
			return count, err
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}

		contribution, err := a.transformer.Transform(ctx, item)
		if err != nil {
			return count, err
		}

		data.Add(contribution)
		count++
		slog.Debug("Item transformed", "id", item.ID, "title", item.Title)
	}

	return count, ctx.Err()
}

type transformResult struct {
	contribution Contribution
	err          error
}

// assembleParallel pulls items on one goroutine, transforms them on up to
// a.workers goroutines and adds the results to data in input order.
func (a *Assembler) assembleParallel(ctx context.Context, items feed.Items, data *Data) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pending := make(chan chan transformResult, a.workers)
	slots := make(chan struct{}, a.workers)
	var wg sync.WaitGroup

	go func() {
		defer close(pending)

		for item, err := range items(ctx) {
			out := make(chan transformResult, 1)

			if err != nil {
				out <- transformResult{err: err}
				select {
				case pending <- out:
				case <-ctx.Done():
				}
				return
			}

			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}

			select {
			case pending <- out:
			case <-ctx.Done():
				<-slots
				return
			}

			wg.Add(1)
			go func(item *feed.Item) {
				defer wg.Done()
				defer func() { <-slots }()

				contribution, err := a.transformer.Transform(ctx, item)
				out <- transformResult{contribution: contribution, err: err}
			}(item)
		}
	}()

	count := 0
	for out := range pending {
		result := <-out
		if result.err != nil {
			cancel()
			for range pending {
			}
			wg.Wait()
			return count, result.err
		}

		data.Add(result.contribution)
		count++
	}

	wg.Wait()

	return count, ctx.Err()
}
