package searchspace

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/modelsmith/archforge/pkgs/blockcode"
)

// GenerateAll enumerates candidates for every block position of seq
// concurrently. Block positions are independent, so the sweep parallelizes
// per index; within each index the candidate ordering is identical to
// Generate's.
func GenerateAll(ctx context.Context, seq []blockcode.Block, rules *Rules) ([][][]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	results := make([][][]string, len(seq))
	for i := range seq {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lists, err := Generate(seq, i, rules)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			results[i] = lists
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
