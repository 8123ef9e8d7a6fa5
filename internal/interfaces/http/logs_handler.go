package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fluxo-estoque/internal/application/dto"
)

// LogsHandler expone el buffer circular de logs del proceso.
type LogsHandler struct {
	recent func() []string
	app    string
}

// NewLogsHandler construye el handler; recent suele ser logger.Recent.
func NewLogsHandler(app string, recent func() []string) *LogsHandler {
	return &LogsHandler{recent: recent, app: app}
}

// Stdout godoc
// @Summary      Últimas líneas de log del proceso
// @Tags         ops
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  dto.LogsResponse
// @Router       /api/stdout [get]
func (h *LogsHandler) Stdout(c *fiber.Ctx) error {
	lines := h.recent()
	if lines == nil {
		lines = []string{}
	}
	return c.JSON(dto.LogsResponse{Lines: lines, Count: len(lines)})
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         ops
// @Produce      json
// @Success      200   {object}  dto.HealthResponse
// @Router       /health [get]
func (h *LogsHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{Status: "ok", App: h.app})
}
