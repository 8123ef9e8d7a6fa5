package inventory

import (
	"fmt"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// Options parámetros de ejecución compartidos por los casos de uso de flujo y consolidación.
type Options struct {
	Parallelism    int
	LookbackDays   int
	Location       *time.Location
	DefaultGroupID int64
	AdvanceMaster  bool             // el flujo de varios días también actualiza products.saldo
	Now            func() time.Time // reloj; nil usa time.Now
}

func (o Options) withDefaults() Options {
	if o.Parallelism < 1 {
		o.Parallelism = DefaultParallelism
	}
	if o.LookbackDays < 1 {
		o.LookbackDays = 7
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// storesFromIDs tiendas indicadas explícitamente; el nombre cae en "Unidade <id>".
func storesFromIDs(ids []int64) []entity.StoreUnit {
	out := make([]entity.StoreUnit, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.StoreUnit{ID: id, Name: fmt.Sprintf("Unidade %d", id)})
	}
	return out
}

func storeName(s entity.StoreUnit) string {
	if s.Name == "" {
		return fmt.Sprintf("Unidade %d", s.ID)
	}
	return s.Name
}
