package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/fluxo-estoque/internal/application/auth"
	"github.com/jhoicas/fluxo-estoque/internal/application/dto"
	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/memory"
	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/fluxo-estoque/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeRunner struct {
	mu       sync.Mutex
	flowReqs []appinv.FlowRequest
	consReqs []appinv.ConsolidationRequest
	allDate  time.Time
	allForce bool
	err      error
}

func (f *fakeRunner) report(mode string) *appinv.BatchReport {
	from, _ := domaininv.ParseDate("2025-05-16")
	to, _ := domaininv.ParseDate("2025-05-18")
	return &appinv.BatchReport{
		RunID:  "run-1",
		Mode:   mode,
		Window: domaininv.Window{From: from, To: to},
		Stores: []*appinv.StoreReport{{
			StoreID: 10, StoreName: "Loja Centro", Status: appinv.StoreStatusProcessed,
			Products: 2, OK: 1, Failed: 1, Records: 3,
			Failures: []appinv.ProductResult{{StoreID: 10, ProductCode: "P2", Status: appinv.ProductStatusFailed, Reason: "boom"}},
		}},
	}
}

func (f *fakeRunner) RunFlow(_ context.Context, req appinv.FlowRequest) (*appinv.BatchReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flowReqs = append(f.flowReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.report(appinv.ModeFlow), nil
}

func (f *fakeRunner) RunConsolidation(_ context.Context, req appinv.ConsolidationRequest) (*appinv.BatchReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consReqs = append(f.consReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.report(appinv.ModeConsolidation), nil
}

func (f *fakeRunner) RunAllGroups(_ context.Context, date time.Time, force bool) ([]*appinv.BatchReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allDate, f.allForce = date, force
	if f.err != nil {
		return nil, f.err
	}
	return []*appinv.BatchReport{f.report(appinv.ModeConsolidation), f.report(appinv.ModeConsolidation)}, nil
}

func (f *fakeRunner) Execute(_ context.Context, method string) (string, error) {
	if method != "ExecuteJobFluxoEstoque" {
		return "", domain.ErrUnknownJobMethod
	}
	return "1 lojas, 0 falhas", nil
}

type fakeScheduler struct{ n int }

func (f *fakeScheduler) Reload(context.Context) (int, error) { return f.n, nil }

type fakeRenderer struct{ got pdf.Report }

func (f *fakeRenderer) RenderFlowReport(_ context.Context, rep pdf.Report) ([]byte, error) {
	f.got = rep
	return []byte("%PDF-1.3 fake"), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	app      *fiber.App
	runner   *fakeRunner
	store    *memory.Store
	renderer *fakeRenderer
}

func fixedNow() time.Time { return time.Date(2025, 5, 19, 12, 0, 0, 0, time.UTC) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3nha"), bcrypt.MinCost)
	require.NoError(t, err)

	env := &testEnv{runner: &fakeRunner{}, store: memory.NewStore(), renderer: &fakeRenderer{}}
	flow := apphttp.NewFlowHandler([]repository.FlowRecordRepository{
		env.store.FlowRecords(repository.FlowTableFluxo),
		env.store.FlowRecords(repository.FlowTableDiferencas),
	}, env.renderer, time.UTC)
	flow.SetClock(fixedNow)

	env.app = fiber.New()
	apphttp.Router(env.app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(
			auth.Credentials{User: "admin", PassHash: string(hash)},
			auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer},
		),
		Jobs:      env.runner,
		Scheduler: &fakeScheduler{n: 2},
		Flow:      flow,
		Logs:      apphttp.NewLogsHandler("fluxo-estoque", func() []string { return []string{"linea 1", "linea 2"} }),
		JWTSecret: testJWTSecret,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenForRole(t, auth.RoleOperator))
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth y ops
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: login correcto devuelve success y token utilizable.
func TestRouter_Login(t *testing.T) {
	env := newTestEnv(t)
	raw, _ := json.Marshal(dto.LoginRequest{Usuario: "admin", Senha: "s3nha"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.LoginResponse
	decodeInto(t, resp, &out)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.Token)
}

// Caso 2: credenciales inválidas → 401 con success=false.
func TestRouter_LoginInvalido(t *testing.T) {
	env := newTestEnv(t)
	raw, _ := json.Marshal(dto.LoginRequest{Usuario: "admin", Senha: "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var out dto.LoginResponse
	decodeInto(t, resp, &out)
	assert.False(t, out.Success)
}

func TestRouter_HealthEsPublico(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouter_Stdout(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/stdout", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.LogsResponse
	decodeInto(t, resp, &out)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []string{"linea 1", "linea 2"}, out.Lines)
}

func TestRouter_StdoutRequiereToken(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/stdout", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Jobs
// ──────────────────────────────────────────────────────────────────────────────

// Caso 3: /run/fluxo traduce fechas y devuelve el reporte tipado.
func TestRouter_RunFlow(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/run/fluxo", dto.RunFlowRequest{GroupID: 7, DtInicio: "2025-05-16", DtFim: "2025-05-18"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.BatchReportResponse
	decodeInto(t, resp, &out)
	assert.Equal(t, "fluxo", out.Modo)
	assert.Equal(t, "2025-05-16", out.DtInicio)
	assert.Equal(t, 1, out.Totais.Failed)
	require.Len(t, out.Lojas, 1)
	require.Len(t, out.Lojas[0].Detalhes, 1)
	assert.Equal(t, "P2", out.Lojas[0].Detalhes[0].Produto)

	require.Len(t, env.runner.flowReqs, 1)
	got := env.runner.flowReqs[0]
	assert.Equal(t, int64(7), got.GroupID)
	assert.Equal(t, "2025-05-16", domaininv.DateKey(got.From))
	assert.Equal(t, "2025-05-18", domaininv.DateKey(got.To))
}

// Caso 4: sin cuerpo usa la ventana por defecto (fechas en cero).
func TestRouter_RunFlowSinCuerpo(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/run/fluxo", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, env.runner.flowReqs, 1)
	assert.True(t, env.runner.flowReqs[0].From.IsZero())
}

func TestRouter_RunFlowFechaInvalida(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/run/fluxo", dto.RunFlowRequest{DtInicio: "16/05/2025", DtFim: "2025-05-18"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/run/fluxo", dto.RunFlowRequest{DtInicio: "2025-05-16"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, env.runner.flowReqs)
}

// Caso 5: job en curso → 409.
func TestRouter_RunFlowEnCurso(t *testing.T) {
	env := newTestEnv(t)
	env.runner.err = domain.ErrJobRunning
	resp := env.do(t, http.MethodPost, "/api/run/fluxo", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRouter_RunConsolidation(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/run/consolidacao", dto.RunConsolidationRequest{GroupID: 3, Data: "2025-05-18", Force: true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out []dto.BatchReportResponse
	decodeInto(t, resp, &out)
	require.Len(t, out, 1)

	require.Len(t, env.runner.consReqs, 1)
	got := env.runner.consReqs[0]
	assert.Equal(t, int64(3), got.GroupID)
	assert.True(t, got.Force)
	assert.Equal(t, "2025-05-18", domaininv.DateKey(got.Date))
}

func TestRouter_RunConsolidationTodosLosGrupos(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/run/consolidacao", dto.RunConsolidationRequest{AllGroups: true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out []dto.BatchReportResponse
	decodeInto(t, resp, &out)
	assert.Len(t, out, 2)
	assert.True(t, env.runner.allDate.IsZero(), "sin data se consolida ayer")
	assert.Empty(t, env.runner.consReqs)
}

func TestRouter_RunMethod(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/run/metodo/ExecuteJobFluxoEstoque", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/run/metodo/NaoExiste", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRouter_ReloadJobs(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/jobs/reload", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.ReloadResponse
	decodeInto(t, resp, &out)
	assert.Equal(t, 2, out.Agendados)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fluxo
// ──────────────────────────────────────────────────────────────────────────────

func seedRecord(t *testing.T, env *testEnv, table repository.FlowTable, date, code, diff string) {
	t.Helper()
	day, err := domaininv.ParseDate(date)
	require.NoError(t, err)
	require.NoError(t, env.store.FlowRecords(table).Upsert(context.Background(), &entity.FlowRecord{
		Date:        day,
		StoreID:     10,
		ProductCode: code,
		ProductName: "Produto " + code,
		Cost:        decimal.RequireFromString("2"),
		Difference:  decimal.RequireFromString(diff),
	}))
}

// Caso 6: por defecto consulta diferencas_estoque del día anterior.
func TestRouter_ListFlowPorDefectoAyer(t *testing.T) {
	env := newTestEnv(t)
	seedRecord(t, env, repository.FlowTableDiferencas, "2025-05-18", "P1", "-5")
	seedRecord(t, env, repository.FlowTableDiferencas, "2025-05-17", "P1", "1")
	seedRecord(t, env, repository.FlowTableFluxo, "2025-05-18", "P9", "0")

	resp := env.do(t, http.MethodGet, "/api/fluxo/10", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.FlowListResponse
	decodeInto(t, resp, &out)
	assert.Equal(t, "diferencas_estoque", out.Tabela)
	assert.Equal(t, "2025-05-18", out.DtInicio)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "P1", out.Items[0].Produto)
	assert.True(t, out.Items[0].Diferenca.Equal(decimal.RequireFromString("-5")))
}

func TestRouter_ListFlowVentanaYTabla(t *testing.T) {
	env := newTestEnv(t)
	seedRecord(t, env, repository.FlowTableFluxo, "2025-05-16", "P1", "0")
	seedRecord(t, env, repository.FlowTableFluxo, "2025-05-17", "P1", "-5")

	resp := env.do(t, http.MethodGet, "/api/fluxo/10?tabela=fluxo_estoque&dt_inicio=2025-05-16&dt_fim=2025-05-18", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.FlowListResponse
	decodeInto(t, resp, &out)
	assert.Len(t, out.Items, 2)
}

func TestRouter_ListFlowParametrosInvalidos(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{
		"/api/fluxo/abc",
		"/api/fluxo/10?tabela=products",
		"/api/fluxo/10?dt_inicio=2025-05-18&dt_fim=2025-05-16",
	} {
		resp := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestRouter_ReportPDF(t *testing.T) {
	env := newTestEnv(t)
	seedRecord(t, env, repository.FlowTableDiferencas, "2025-05-18", "P1", "-5")

	resp := env.do(t, http.MethodGet, "/api/fluxo/10/relatorio.pdf?nome=Loja%20Centro", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body[:4]))
	assert.Equal(t, "Loja Centro", env.renderer.got.StoreName)
	assert.Len(t, env.renderer.got.Records, 1)
}
