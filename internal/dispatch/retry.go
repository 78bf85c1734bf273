package dispatch

import (
	"context"
	"time"

	"github.com/mj1618/deskctl/internal/model"
)

// RetryPolicy retries requests that failed with a transient subsystem
// fault. The zero value and Attempts <= 1 mean no retry.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// Do runs fn until it succeeds, fails with a non-transient error, or the
// attempts are used up.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := max(1, p.Attempts)
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && p.Backoff > 0 {
			t := time.NewTimer(p.Backoff * time.Duration(i))
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
		}
		err = fn()
		if err == nil || !model.IsKind(err, model.KindTransientSubsystem) {
			return err
		}
	}
	return err
}
