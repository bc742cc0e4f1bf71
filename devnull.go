package coroflow

import "context"

// DevNull returns a running Task that discards everything sent to it and
// never produces output, finishing only when its input throws or the
// context is cancelled. Useful as a pipe sink when only side effects (or
// nothing at all) matter. Grounded in idiokit/threado.py's dev_null, which
// loops forever receiving and flushing its input.
func DevNull(ctx context.Context, cq *CallQueue) *Task {
	return NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		for {
			recvErr := make(chan error, 1)
			go func() {
				values, err := inner.Recv()
				// a throw into the input arrives as an UpstreamFinished marker
				for _, v := range values {
					if uf, ok := v.(UpstreamFinished); ok && uf.Result.Throw && err == nil {
						err = uf.Result.Err
					}
				}
				recvErr <- err
			}()
			select {
			case err := <-recvErr:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}).Start()
}
