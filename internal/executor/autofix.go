package executor

import "context"

// Autofixer attempts to repair the working tree between failed gate
// attempts. Implementations receive the failing item and the gate
// output so they can target the fix.
type Autofixer interface {
	Fix(ctx context.Context, item Item, gateOutput string) error
}

// NoopAutofixer changes nothing; retries with it simply re-run the gate,
// which is enough when failures are flaky.
type NoopAutofixer struct{}

func (NoopAutofixer) Fix(ctx context.Context, item Item, gateOutput string) error {
	return nil
}
