package inventory

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelism tamaño del pool cuando la configuración no indica otro.
const DefaultParallelism = 100

// runBounded aplica fn a cada item con a lo sumo limit goroutines activas (ventana deslizante).
// fn no devuelve error: un fallo de un item nunca cancela a los demás.
// Los resultados conservan el orden de items.
func runBounded[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) R) []R {
	if limit < 1 {
		limit = DefaultParallelism
	}
	out := make([]R, len(items))

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range items {
		g.Go(func() error {
			out[i] = fn(ctx, items[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}
