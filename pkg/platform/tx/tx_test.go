package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWithoutTx(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
	assert.Equal(t, context.Background(), WithTx(context.Background(), nil))
}

func TestMemoryRunner(t *testing.T) {
	t.Run("propagates callback error", func(t *testing.T) {
		r := NewMemoryRunner()
		want := errors.New("boom")
		err := r.RunInTx(context.Background(), func(context.Context) error { return want })
		require.ErrorIs(t, err, want)
	})

	t.Run("nested calls do not deadlock", func(t *testing.T) {
		r := NewMemoryRunner()
		err := r.RunInTx(context.Background(), func(ctx context.Context) error {
			return r.RunInTx(ctx, func(context.Context) error { return nil })
		})
		require.NoError(t, err)
	})

	t.Run("serializes concurrent callers", func(t *testing.T) {
		r := NewMemoryRunner()
		counter := 0
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.RunInTx(context.Background(), func(context.Context) error {
					counter++
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
	})
}
