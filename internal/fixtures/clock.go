package fixtures

import (
	"context"
	"time"

	"github.com/tilinna/clock"
)

// NewAdvancingClock attaches a virtual clock to a context which jumps straight
// to the next pending timer instead of waiting in wall time. The returned stop
// function halts the advancing goroutine; it also stops when ctx is done.
func NewAdvancingClock(ctx context.Context) (context.Context, *clock.Mock, func()) {
	clck := clock.NewMock(time.Unix(1, 0))
	ctx = clock.Context(ctx, clck)
	ch := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				return
			case <-ctx.Done():
				return
			default:
				if _, d := clck.AddNext(); d == 0 {
					time.Sleep(time.Microsecond)
				}
			}
		}
	}()
	return ctx, clck, func() {
		close(ch)
	}
}
