package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fluxo-estoque/internal/application/dto"
	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// JobRunner ejecuciones manuales (implementado por jobs.Service).
type JobRunner interface {
	RunFlow(ctx context.Context, req appinv.FlowRequest) (*appinv.BatchReport, error)
	RunConsolidation(ctx context.Context, req appinv.ConsolidationRequest) (*appinv.BatchReport, error)
	RunAllGroups(ctx context.Context, date time.Time, force bool) ([]*appinv.BatchReport, error)
	Execute(ctx context.Context, method string) (string, error)
}

// ScheduleReloader recarga los disparos activos del cron.
type ScheduleReloader interface {
	Reload(ctx context.Context) (int, error)
}

// JobsHandler disparo manual de jobs y recarga del agendador.
type JobsHandler struct {
	runner    JobRunner
	scheduler ScheduleReloader
	log       *logger.Logger
}

// NewJobsHandler construye el handler. scheduler puede ser nil si el cron está deshabilitado.
func NewJobsHandler(runner JobRunner, scheduler ScheduleReloader, log *logger.Logger) *JobsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &JobsHandler{runner: runner, scheduler: scheduler, log: log}
}

// RunFlow godoc
// @Summary      Recalcular fluxo_estoque de una ventana
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.RunFlowRequest  true  "group_id o store_ids, dt_inicio, dt_fim"
// @Success      200   {object}  dto.BatchReportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/run/fluxo [post]
func (h *JobsHandler) RunFlow(c *fiber.Ctx) error {
	var in dto.RunFlowRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	req := appinv.FlowRequest{GroupID: in.GroupID, StoreIDs: in.StoreIDs}
	var err error
	if (in.DtInicio == "") != (in.DtFim == "") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "dt_inicio y dt_fim van juntos"})
	}
	if in.DtInicio != "" {
		if req.From, err = domaininv.ParseDate(in.DtInicio); err != nil {
			return writeError(c, err)
		}
		if req.To, err = domaininv.ParseDate(in.DtFim); err != nil {
			return writeError(c, err)
		}
	}
	h.log.Info().Str("operator", GetOperator(c)).Int64("group_id", in.GroupID).Msg("fluxo solicitado vía HTTP")
	rep, err := h.runner.RunFlow(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToBatchReportResponse(rep))
}

// RunConsolidation godoc
// @Summary      Consolidar un día en diferencas_estoque
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.RunConsolidationRequest  true  "group_id, data, force, all_groups"
// @Success      200   {array}   dto.BatchReportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/run/consolidacao [post]
func (h *JobsHandler) RunConsolidation(c *fiber.Ctx) error {
	var in dto.RunConsolidationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	var date time.Time
	if in.Data != "" {
		var err error
		if date, err = domaininv.ParseDate(in.Data); err != nil {
			return writeError(c, err)
		}
	}
	h.log.Info().Str("operator", GetOperator(c)).Int64("group_id", in.GroupID).Bool("force", in.Force).Msg("consolidación solicitada vía HTTP")

	if in.AllGroups {
		reps, err := h.runner.RunAllGroups(c.UserContext(), date, in.Force)
		if err != nil && len(reps) == 0 {
			return writeError(c, err)
		}
		out := make([]dto.BatchReportResponse, 0, len(reps))
		for _, r := range reps {
			out = append(out, dto.ToBatchReportResponse(r))
		}
		if err != nil {
			h.log.Warn().Err(err).Msg("consolidación con grupos fallidos")
			return c.Status(fiber.StatusMultiStatus).JSON(out)
		}
		return c.JSON(out)
	}

	rep, err := h.runner.RunConsolidation(c.UserContext(), appinv.ConsolidationRequest{
		GroupID:  in.GroupID,
		StoreIDs: in.StoreIDs,
		Date:     date,
		Force:    in.Force,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON([]dto.BatchReportResponse{dto.ToBatchReportResponse(rep)})
}

// RunMethod godoc
// @Summary      Ejecutar un método registrado del agendador
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        method  path  string  true  "nombre del método (disparos.metodo)"
// @Success      200   {object}  map[string]string
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/run/metodo/{method} [post]
func (h *JobsHandler) RunMethod(c *fiber.Ctx) error {
	msg, err := h.runner.Execute(c.UserContext(), c.Params("method"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"mensagem": msg})
}

// Reload godoc
// @Summary      Recargar disparos activos
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  dto.ReloadResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/jobs/reload [post]
func (h *JobsHandler) Reload(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CRON_DISABLED", Message: "agendador deshabilitado"})
	}
	n, err := h.scheduler.Reload(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReloadResponse{Agendados: n})
}
