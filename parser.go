package usnjrnl

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Parser is the single "sequence of records" facade over a chunked source:
// it pulls chunks, fans their decoding out across a worker pool, and
// flattens the results back into strictly ascending offset order before
// handing them to the caller.
type Parser struct {
	chunks  *ChunkReader
	workers int
	log     FieldLogger
}

// NewParser wraps a ChunkReader with a worker count. workers <= 1 runs the
// decode step inline on the caller's goroutine; anything higher dispatches
// a wave of that many chunks to an errgroup before flattening.
func NewParser(chunks *ChunkReader, workers int, log FieldLogger) *Parser {
	if workers < 1 {
		workers = 1
	}
	return &Parser{chunks: chunks, workers: workers, log: log}
}

// Each pulls chunks in waves of p.workers, decodes them in parallel, and
// invokes fn once per UsnEntry in strictly ascending absolute-offset order.
// It returns on the first error from either the chunk source or fn.
func (p *Parser) Each(ctx context.Context, fn func(UsnEntry) error) error {
	for {
		chunks, err := p.nextWave()
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}

		results := make([][]UsnEntry, len(chunks))
		if p.workers == 1 {
			results[0] = chunks[0].Records(p.log)
		} else {
			g, _ := errgroup.WithContext(ctx)
			for i, chunk := range chunks {
				i, chunk := i, chunk
				g.Go(func() error {
					results[i] = chunk.Records(p.log)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
		}

		for _, entries := range results {
			for _, entry := range entries {
				if err := fn(entry); err != nil {
					return err
				}
			}
		}
	}
}

// All collects every entry via Each, for callers that want the whole
// sequence materialized rather than streamed.
func (p *Parser) All(ctx context.Context) ([]UsnEntry, error) {
	var all []UsnEntry
	err := p.Each(ctx, func(e UsnEntry) error {
		all = append(all, e)
		return nil
	})
	return all, err
}

func (p *Parser) nextWave() ([]*DataChunk, error) {
	chunks := make([]*DataChunk, 0, p.workers)
	for i := 0; i < p.workers; i++ {
		chunk, err := p.chunks.Next()
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			break
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
