package tx

import (
	"context"
	"sync"
)

type memoryTxKey struct{}

// MemoryRunner serializes callbacks with a mutex. It gives in-memory stores the
// same all-or-nothing ordering guarantees the SQL runner gets from transactions,
// minus rollback.
type MemoryRunner struct {
	mu sync.Mutex
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(context.WithValue(ctx, memoryTxKey{}, struct{}{}))
}
