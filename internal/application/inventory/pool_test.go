package inventory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunBounded_RespetaLimite(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	var active, peak int32

	out := runBounded(context.Background(), 5, items, func(_ context.Context, n int) int {
		cur := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
		return n * 2
	})

	assert.LessOrEqual(t, int(peak), 5)
	for i, v := range out {
		assert.Equal(t, i*2, v, "los resultados conservan el orden de entrada")
	}
}

func TestRunBounded_LimiteInvalidoUsaDefault(t *testing.T) {
	out := runBounded(context.Background(), 0, []string{"a", "b"}, func(_ context.Context, s string) string {
		return s + "!"
	})
	assert.Equal(t, []string{"a!", "b!"}, out)
}
