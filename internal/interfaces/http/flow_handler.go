package http

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fluxo-estoque/internal/application/dto"
	"github.com/jhoicas/fluxo-estoque/internal/domain"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/pdf"
)

// FlowReportRenderer genera el PDF de diferencias.
type FlowReportRenderer interface {
	RenderFlowReport(ctx context.Context, rep pdf.Report) ([]byte, error)
}

// FlowHandler consulta de fluxo_estoque y diferencas_estoque.
type FlowHandler struct {
	repos    map[repository.FlowTable]repository.FlowRecordRepository
	renderer FlowReportRenderer
	now      func() time.Time
	loc      *time.Location
}

// NewFlowHandler construye el handler con un repositorio por tabla.
func NewFlowHandler(repos []repository.FlowRecordRepository, renderer FlowReportRenderer, loc *time.Location) *FlowHandler {
	m := make(map[repository.FlowTable]repository.FlowRecordRepository, len(repos))
	for _, r := range repos {
		m[r.Table()] = r
	}
	return &FlowHandler{repos: m, renderer: renderer, now: time.Now, loc: loc}
}

// List godoc
// @Summary      Registros de fluxo o diferencias de una tienda
// @Tags         fluxo
// @Produce      json
// @Security     BearerAuth
// @Param        store_id   path   int     true   "system_unit_id"
// @Param        dt_inicio  query  string  false  "YYYY-MM-DD (default: ayer)"
// @Param        dt_fim     query  string  false  "YYYY-MM-DD (default: dt_inicio)"
// @Param        tabela     query  string  false  "fluxo_estoque | diferencas_estoque"
// @Success      200   {object}  dto.FlowListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/fluxo/{store_id} [get]
func (h *FlowHandler) List(c *fiber.Ctx) error {
	storeID, repo, window, err := h.parse(c)
	if err != nil {
		return writeError(c, err)
	}
	records, err := repo.ListByStoreAndRange(c.UserContext(), storeID, window.From, window.To)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.FlowListResponse{
		StoreID:  storeID,
		Tabela:   string(repo.Table()),
		DtInicio: domaininv.DateKey(window.From),
		DtFim:    domaininv.DateKey(window.To),
		Items:    make([]dto.FlowRecordResponse, 0, len(records)),
	}
	for _, r := range records {
		out.Items = append(out.Items, dto.ToFlowRecordResponse(r))
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Relatorio PDF de diferencias de una tienda
// @Tags         fluxo
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        store_id   path   int     true   "system_unit_id"
// @Param        dt_inicio  query  string  false  "YYYY-MM-DD"
// @Param        dt_fim     query  string  false  "YYYY-MM-DD"
// @Param        tabela     query  string  false  "fluxo_estoque | diferencas_estoque"
// @Success      200
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/fluxo/{store_id}/relatorio.pdf [get]
func (h *FlowHandler) Report(c *fiber.Ctx) error {
	if h.renderer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "PDF_DISABLED", Message: "generador de PDF no configurado"})
	}
	storeID, repo, window, err := h.parse(c)
	if err != nil {
		return writeError(c, err)
	}
	records, err := repo.ListByStoreAndRange(c.UserContext(), storeID, window.From, window.To)
	if err != nil {
		return writeError(c, err)
	}
	doc, err := h.renderer.RenderFlowReport(c.UserContext(), pdf.Report{
		StoreID:     storeID,
		StoreName:   c.Query("nome"),
		Table:       string(repo.Table()),
		Window:      window,
		Records:     records,
		GeneratedAt: h.now(),
	})
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s_%d_%s.pdf"`, repo.Table(), storeID, domaininv.DateKey(window.To)))
	return c.Send(doc)
}

func (h *FlowHandler) parse(c *fiber.Ctx) (int64, repository.FlowRecordRepository, domaininv.Window, error) {
	storeID, err := strconv.ParseInt(c.Params("store_id"), 10, 64)
	if err != nil || storeID <= 0 {
		return 0, nil, domaininv.Window{}, fmt.Errorf("%w: store_id inválido", domain.ErrInvalidInput)
	}
	table := repository.FlowTable(c.Query("tabela", string(repository.FlowTableDiferencas)))
	repo, ok := h.repos[table]
	if !ok {
		return 0, nil, domaininv.Window{}, fmt.Errorf("%w: tabela %q", domain.ErrInvalidInput, table)
	}

	window := domaininv.Window{From: domaininv.Yesterday(h.now(), h.loc)}
	if s := c.Query("dt_inicio"); s != "" {
		if window.From, err = domaininv.ParseDate(s); err != nil {
			return 0, nil, domaininv.Window{}, err
		}
	}
	window.To = window.From
	if s := c.Query("dt_fim"); s != "" {
		if window.To, err = domaininv.ParseDate(s); err != nil {
			return 0, nil, domaininv.Window{}, err
		}
	}
	if err := window.Validate(); err != nil {
		return 0, nil, domaininv.Window{}, err
	}
	return storeID, repo, window, nil
}

// SetClock reemplaza el reloj usado para la fecha por defecto.
func (h *FlowHandler) SetClock(now func() time.Time) {
	h.now = now
}
