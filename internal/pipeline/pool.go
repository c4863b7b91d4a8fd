package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Chunk splits paths into consecutive groups of at most size.
func Chunk(paths []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	chunks := make([][]string, 0, (len(paths)+size-1)/size)
	for start := 0; start < len(paths); start += size {
		end := min(start+size, len(paths))
		chunks = append(chunks, paths[start:end])
	}
	return chunks
}

// Map runs fn over paths on workers goroutines. Paths are dispatched in
// chunks of chunkSize; one worker handles a whole chunk in order. Results
// arrive on the returned channel in completion order and the channel is
// closed once every dispatched path is done. Cancelling ctx stops dispatch
// of further chunks; chunks already taken by a worker finish.
//
// The caller must drain the channel.
func Map[T any](ctx context.Context, paths []string, workers, chunkSize int, fn func(context.Context, string) T) <-chan T {
	if workers < 1 {
		workers = 1
	}
	chunks := make(chan []string)
	out := make(chan T, workers*max(chunkSize, 1))

	var g errgroup.Group
	g.Go(func() error {
		defer close(chunks)
		for _, c := range Chunk(paths, chunkSize) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case chunks <- c:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			for c := range chunks {
				for _, p := range c {
					out <- fn(ctx, p)
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}
