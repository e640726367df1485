package lock

import (
	"context"
	"fmt"
	"time"
)

// poll повторяет try с интервалом interval, пока она не вернёт true или не истечёт timeout
func poll(ctx context.Context, key string, timeout, interval time.Duration, try func(ctx context.Context) (bool, error)) error {
	deadline := time.Now().Add(timeout)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		ok, err := try(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, key, err)
		}
		if ok {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: %s", ErrBusy, key)
		}

		wait := interval
		if remaining < wait {
			wait = remaining
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
