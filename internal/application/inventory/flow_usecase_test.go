package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/memory"
)

func TestRunFlowReconciliation_EscenarioTresDias(t *testing.T) {
	s := memory.NewStore()
	seedScenario(s)
	uc := newFlowUseCase(s, testOptions())

	rep, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{
		GroupID: testGroupID,
		From:    d("2025-05-16"),
		To:      d("2025-05-18"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, rep.RunID)
	assert.Equal(t, appinv.ModeFlow, rep.Mode)

	totals := rep.Totals()
	assert.Equal(t, 1, totals.OK)
	assert.Equal(t, 0, totals.Failed)
	assert.Equal(t, 3, totals.RecordsWritten)

	recs := s.Records(repository.FlowTableFluxo)
	require.Len(t, recs, 3)

	assert.True(t, recs[0].OpeningBalance.Equal(q("100")))
	assert.True(t, recs[0].ActualCount.Equal(q("115")))
	assert.True(t, recs[1].OpeningBalance.Equal(q("115")))
	assert.True(t, recs[1].ExpectedCount.Equal(q("105")))
	assert.True(t, recs[1].ActualCount.Equal(q("100")))
	assert.True(t, recs[1].Difference.Equal(q("-5")))
	assert.Equal(t, "B-17", recs[1].Doc)
	assert.True(t, recs[2].OpeningBalance.Equal(q("100")))
	assert.True(t, recs[2].ActualCount.Equal(q("105")))

	assert.Equal(t, "Produto P-01", recs[0].ProductName, "el registro lleva los datos del maestro")
	assert.True(t, recs[0].Cost.Equal(q("2.50")))

	p := s.Product(testStoreA, "P-01")
	assert.True(t, p.Balance.IsZero(), "sin FLOW_ADVANCE_MASTER el saldo maestro no cambia")
}

func TestRunFlowReconciliation_Idempotente(t *testing.T) {
	s := memory.NewStore()
	seedScenario(s)
	uc := newFlowUseCase(s, testOptions())
	req := appinv.FlowRequest{GroupID: testGroupID, From: d("2025-05-16"), To: d("2025-05-18")}

	_, err := uc.RunFlowReconciliation(context.Background(), req)
	require.NoError(t, err)
	first := s.Records(repository.FlowTableFluxo)

	_, err = uc.RunFlowReconciliation(context.Background(), req)
	require.NoError(t, err)
	second := s.Records(repository.FlowTableFluxo)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].ActualCount.Equal(second[i].ActualCount))
		assert.True(t, first[i].Difference.Equal(second[i].Difference))
		assert.True(t, first[i].OpeningBalance.Equal(second[i].OpeningBalance))
	}
}

// Un producto que falla no afecta a los demás ni deja registros parciales.
func TestRunFlowReconciliation_AislaFallosPorProducto(t *testing.T) {
	s := memory.NewStore()
	seedScenario(s)
	for _, code := range []string{"P-02", "P-03"} {
		s.PutProduct(product(testStoreA, code, "0"))
		s.AddMovement(movement(testStoreA, code, "2025-05-16", entity.MovementTypeEntrada, "1", "NF-9"))
	}
	s.Fail = func(op string, _ int64, key string) error {
		if op == memory.OpListMovements && key == "P-02" {
			return errors.New("timeout")
		}
		return nil
	}
	uc := newFlowUseCase(s, testOptions())

	rep, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{
		GroupID: testGroupID, From: d("2025-05-16"), To: d("2025-05-18"),
	})
	require.NoError(t, err)

	totals := rep.Totals()
	assert.Equal(t, 3, totals.Products)
	assert.Equal(t, 2, totals.OK)
	assert.Equal(t, 1, totals.Failed)

	require.Len(t, rep.Stores, 1)
	require.Len(t, rep.Stores[0].Failures, 1)
	assert.Equal(t, "P-02", rep.Stores[0].Failures[0].ProductCode)
	assert.Equal(t, appinv.ProductStatusFailed, rep.Stores[0].Failures[0].Status)
	assert.True(t, rep.HasFailures())

	for _, r := range s.Records(repository.FlowTableFluxo) {
		assert.NotEqual(t, "P-02", r.ProductCode)
	}
}

// Un fallo al actualizar el maestro revierte también los registros del producto.
func TestRunFlowReconciliation_TransaccionPorProducto(t *testing.T) {
	s := memory.NewStore()
	seedScenario(s)
	s.Fail = func(op string, _ int64, _ string) error {
		if op == memory.OpUpdateBalance {
			return errors.New("deadlock")
		}
		return nil
	}
	opts := testOptions()
	opts.AdvanceMaster = true
	uc := newFlowUseCase(s, opts)

	rep, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{
		GroupID: testGroupID, From: d("2025-05-16"), To: d("2025-05-18"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Totals().Failed)
	assert.Empty(t, s.Records(repository.FlowTableFluxo))
}

func TestRunFlowReconciliation_AvanzaMaestro(t *testing.T) {
	s := memory.NewStore()
	seedScenario(s)
	opts := testOptions()
	opts.AdvanceMaster = true
	uc := newFlowUseCase(s, opts)

	_, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{
		GroupID: testGroupID, From: d("2025-05-16"), To: d("2025-05-18"),
	})
	require.NoError(t, err)

	p := s.Product(testStoreA, "P-01")
	assert.True(t, p.Balance.Equal(q("105")))
	assert.Equal(t, "B-17", p.LastDoc)
}

func TestRunFlowReconciliation_ProductoSinMovimientosSeOmite(t *testing.T) {
	s := memory.NewStore()
	seedScenario(s)
	s.PutProduct(product(testStoreA, "P-99", "3"))
	noInsumo := product(testStoreA, "P-98", "3")
	noInsumo.IsIngredient = false
	s.PutProduct(noInsumo)
	uc := newFlowUseCase(s, testOptions())

	rep, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{
		GroupID: testGroupID, From: d("2025-05-16"), To: d("2025-05-18"),
	})
	require.NoError(t, err)

	totals := rep.Totals()
	assert.Equal(t, 2, totals.Products, "solo productos insumo")
	assert.Equal(t, 1, totals.Skipped)
	assert.Equal(t, 3, totals.RecordsWritten)
}

// Falla el listado de productos de una tienda: se registra y la corrida sigue con la siguiente.
func TestRunFlowReconciliation_TiendaFallidaNoDetieneLote(t *testing.T) {
	s := memory.NewStore()
	s.PutGroup(entity.StoreGroup{ID: testGroupID},
		entity.StoreUnit{ID: testStoreA, Name: "Loja A"},
		entity.StoreUnit{ID: testStoreB, Name: "Loja B"},
	)
	s.PutProduct(product(testStoreB, "P-01", "0"))
	s.AddMovement(movement(testStoreB, "P-01", "2025-05-28", entity.MovementTypeEntrada, "4", "NF-1"))
	s.Fail = func(op string, storeID int64, _ string) error {
		if op == memory.OpListProducts && storeID == testStoreA {
			return errors.New("connection reset")
		}
		return nil
	}
	uc := newFlowUseCase(s, testOptions())

	rep, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{GroupID: testGroupID})
	require.NoError(t, err)
	require.Len(t, rep.Stores, 2)
	assert.Equal(t, appinv.StoreStatusFailed, rep.Stores[0].Status)
	assert.Contains(t, rep.Stores[0].Error, "connection reset")
	assert.Equal(t, appinv.StoreStatusProcessed, rep.Stores[1].Status)
	assert.Equal(t, 1, rep.Stores[1].OK)
	assert.Equal(t, 1, rep.Totals().StoresFailed)
}

func TestRunFlowReconciliation_VentanaPorDefecto(t *testing.T) {
	s := memory.NewStore()
	seedScenario(s)
	uc := newFlowUseCase(s, testOptions())

	rep, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-25..2025-05-31", rep.Window.String())
	assert.Equal(t, testGroupID, rep.GroupID, "sin selección usa el grupo por defecto")
}

func TestRunFlowReconciliation_TiendasExplicitas(t *testing.T) {
	s := memory.NewStore()
	seedScenario(s)
	s.Fail = func(op string, _ int64, _ string) error {
		if op == memory.OpListStores {
			return errors.New("no debería consultarse")
		}
		return nil
	}
	uc := newFlowUseCase(s, testOptions())

	rep, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{
		StoreIDs: []int64{testStoreA}, From: d("2025-05-16"), To: d("2025-05-18"),
	})
	require.NoError(t, err)
	require.Len(t, rep.Stores, 1)
	assert.Equal(t, fmt.Sprintf("Unidade %d", testStoreA), rep.Stores[0].StoreName)
	assert.Equal(t, 1, rep.Stores[0].OK)
}

func TestRunFlowReconciliation_ErrorResolviendoGrupo(t *testing.T) {
	s := memory.NewStore()
	s.Fail = func(op string, _ int64, _ string) error {
		if op == memory.OpListStores {
			return errors.New("backend 502")
		}
		return nil
	}
	uc := newFlowUseCase(s, testOptions())

	_, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{GroupID: 7})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreDirectory))
}

func TestRunFlowReconciliation_VentanaInvertida(t *testing.T) {
	uc := newFlowUseCase(memory.NewStore(), testOptions())
	_, err := uc.RunFlowReconciliation(context.Background(), appinv.FlowRequest{
		GroupID: testGroupID, From: d("2025-05-18"), To: d("2025-05-16"),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// El resultado no depende del tamaño del pool.
func TestRunFlowReconciliation_ParalelismoNoAlteraResultado(t *testing.T) {
	build := func(parallelism int) []*entity.FlowRecord {
		s := memory.NewStore()
		seedScenario(s)
		for i := 2; i <= 30; i++ {
			code := fmt.Sprintf("P-%02d", i)
			s.PutProduct(product(testStoreA, code, "0"))
			s.AddMovement(movement(testStoreA, code, "2025-05-16", entity.MovementTypeEntrada, fmt.Sprint(i), "NF"))
			s.AddMovement(movement(testStoreA, code, "2025-05-17", entity.MovementTypeSaida, "1", "V"))
		}
		opts := testOptions()
		opts.Parallelism = parallelism
		_, err := newFlowUseCase(s, opts).RunFlowReconciliation(context.Background(), appinv.FlowRequest{
			GroupID: testGroupID, From: d("2025-05-16"), To: d("2025-05-18"),
		})
		require.NoError(t, err)
		return s.Records(repository.FlowTableFluxo)
	}

	serial := build(1)
	parallel := build(100)
	require.Len(t, parallel, len(serial))
	for i := range serial {
		assert.Equal(t, serial[i].ProductCode, parallel[i].ProductCode)
		assert.True(t, serial[i].ActualCount.Equal(parallel[i].ActualCount))
	}
}
