package dispatch

import (
	"context"
	"sync"
)

// Closer is the part of a resource handle the finalizer needs.
type Closer interface {
	Close(ctx context.Context) error
}

// Finalize releases handle.
//
// With a scheduler the close runs in the background and Finalize returns
// at once; the close error is the scheduler's to report. Without one the
// close runs inline and its error is returned. A nil handle is a no-op.
func Finalize(ctx context.Context, handle Closer, sched Scheduler) error {
	if handle == nil {
		return nil
	}

	if sched != nil {
		sched.Go(ctx, handle.Close)
		return nil
	}

	return handle.Close(ctx)
}

// finalizer makes Finalize run at most once per request, whichever
// path (normal return or panic unwinding) gets there first.
type finalizer struct {
	once   sync.Once
	handle Closer
	sched  Scheduler
	err    error
}

func newFinalizer(handle Closer, sched Scheduler) *finalizer {
	return &finalizer{handle: handle, sched: sched}
}

func (f *finalizer) run(ctx context.Context) error {
	f.once.Do(func() {
		f.err = Finalize(ctx, f.handle, f.sched)
	})
	return f.err
}
