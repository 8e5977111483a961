package poll

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Condition is a readiness predicate. A false result is soft and will be
// retried; an error is hard and aborts polling immediately.
type Condition func(ctx context.Context) (bool, error)

// Until evaluates cond every interval until it reports true or ctx expires.
// Deadline expiry is a soft false, not an error.
func Until(ctx context.Context, interval time.Duration, cond Condition) (bool, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, nil
		case <-ticker.C:
		}
	}
}

// AllReady polls every condition concurrently under the one deadline carried
// by ctx and returns the logical AND of the outcomes. Every check gets the
// full deadline regardless of how the others behave.
func AllReady(ctx context.Context, interval time.Duration, conds []Condition) (bool, error) {
	var notReady atomic.Bool
	g, ctx := errgroup.WithContext(ctx)
	for _, cond := range conds {
		cond := cond
		g.Go(func() error {
			ok, err := Until(ctx, interval, cond)
			if err != nil {
				return err
			}
			if !ok {
				notReady.Store(true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return !notReady.Load(), nil
}
