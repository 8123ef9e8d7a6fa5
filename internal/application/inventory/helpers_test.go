package inventory_test

import (
	"time"

	"github.com/shopspring/decimal"

	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/memory"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testGroupID = int64(1)
	testStoreA  = int64(10)
	testStoreB  = int64(20)
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func q(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixedNow 1 de junio de 2025 al mediodía UTC.
func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testOptions() appinv.Options {
	return appinv.Options{
		Parallelism:    4,
		LookbackDays:   7,
		Location:       time.UTC,
		DefaultGroupID: testGroupID,
		Now:            fixedNow,
	}
}

func product(storeID int64, code string, balance string) entity.Product {
	return entity.Product{
		StoreID:      storeID,
		Code:         code,
		Name:         "Produto " + code,
		Category:     "Insumos",
		Cost:         q("2.50"),
		IsIngredient: true,
		Balance:      q(balance),
	}
}

func movement(storeID int64, code, date, typ, qty, doc string) entity.InventoryMovement {
	return entity.InventoryMovement{
		StoreID:     storeID,
		ProductCode: code,
		Date:        d(date),
		Type:        typ,
		Doc:         doc,
		Quantity:    q(qty),
		Status:      entity.MovementStatusActive,
	}
}

// seedScenario grupo 1 con la tienda A y el producto P-01 del ejemplo de tres días.
func seedScenario(s *memory.Store) {
	s.PutGroup(entity.StoreGroup{ID: testGroupID, Name: "Grupo 1"},
		entity.StoreUnit{ID: testStoreA, CustomCode: "A", Name: "Loja A"},
	)
	s.PutProduct(product(testStoreA, "P-01", "0"))
	s.AddMovement(movement(testStoreA, "P-01", "2025-05-10", entity.MovementTypeBalanco, "100", "B-0"))
	s.AddMovement(movement(testStoreA, "P-01", "2025-05-16", entity.MovementTypeEntrada, "20", "NF-1"))
	s.AddMovement(movement(testStoreA, "P-01", "2025-05-16", entity.MovementTypeSaida, "5", "V-1"))
	s.AddMovement(movement(testStoreA, "P-01", "2025-05-17", entity.MovementTypeSaida, "10", "V-2"))
	s.AddMovement(movement(testStoreA, "P-01", "2025-05-17", entity.MovementTypeBalanco, "100", "B-17"))
	s.AddMovement(movement(testStoreA, "P-01", "2025-05-18", entity.MovementTypeEntrada, "5", "NF-2"))
}

func newFlowUseCase(s *memory.Store, opts appinv.Options) *appinv.FlowUseCase {
	return appinv.NewFlowUseCase(s, s, s, memory.NewTxRunner(s), logger.Nop(), opts)
}

func newConsolidationUseCase(s *memory.Store, opts appinv.Options) *appinv.ConsolidationUseCase {
	return appinv.NewConsolidationUseCase(s, s, s.FlowRecords("diferencas_estoque"), s, memory.NewTxRunner(s), logger.Nop(), opts)
}
