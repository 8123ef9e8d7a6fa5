// Package backend cliente del backend PHP: POST {method, token, data} a BACKEND_URL.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// Verificar en tiempo de compilación que Client implementa StoreDirectory.
var _ repository.StoreDirectory = (*Client)(nil)

const (
	MethodUnitsByGroup        = "getUnitsByGroup"
	MethodGroupsToConsolidate = "getGroupsToConsolidation"
	maxResponseBytes          = 4 << 20
	defaultTimeout            = 30 * time.Second
)

// Client adaptador RPC del backend. Usa net/http de la librería estándar.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient construye el cliente. timeout <= 0 usa 30 s.
func NewClient(url, token string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Worker("backend"),
	}
}

type rpcRequest struct {
	Method string `json:"method"`
	Token  string `json:"token"`
	Data   any    `json:"data"`
}

// Call envía el método y decodifica la respuesta en out (si no es nil).
func (c *Client) Call(ctx context.Context, method string, data any, out any) error {
	if c.url == "" {
		return fmt.Errorf("backend: BACKEND_URL no configurado")
	}
	if data == nil {
		data = map[string]any{}
	}
	body, err := json.Marshal(rpcRequest{Method: method, Token: c.token, Data: data})
	if err != nil {
		return fmt.Errorf("backend: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("backend: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("backend %s: timeout o cancelación: %w", method, ctx.Err())
		}
		return fmt.Errorf("backend %s: llamada HTTP fallida: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("backend %s: leer respuesta: %w", method, err)
	}
	c.log.Debug().Str("method", method).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("backend call")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend %s: HTTP %d: %s", method, resp.StatusCode, truncate(string(raw), 256))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend %s: respuesta inesperada: %w", method, err)
	}
	return nil
}

// unitDTO acepta los nombres de campo que devuelve el backend (system_unit_id|id, name|nome|descricao).
type unitDTO struct {
	SystemUnitID flexInt64 `json:"system_unit_id"`
	ID           flexInt64 `json:"id"`
	CustomCode   string    `json:"custom_code"`
	Name         string    `json:"name"`
	Nome         string    `json:"nome"`
	Descricao    string    `json:"descricao"`
}

type groupDTO struct {
	ID   flexInt64 `json:"id"`
	Nome string    `json:"nome"`
	Name string    `json:"name"`
}

// ListStoresByGroup getUnitsByGroup {group_id}.
func (c *Client) ListStoresByGroup(ctx context.Context, groupID int64) ([]entity.StoreUnit, error) {
	var units []unitDTO
	if err := c.Call(ctx, MethodUnitsByGroup, map[string]any{"group_id": groupID}, &units); err != nil {
		return nil, err
	}
	out := make([]entity.StoreUnit, 0, len(units))
	for _, u := range units {
		id := int64(u.SystemUnitID)
		if id == 0 {
			id = int64(u.ID)
		}
		if id == 0 {
			continue
		}
		out = append(out, entity.StoreUnit{
			ID:         id,
			CustomCode: u.CustomCode,
			Name:       firstNonEmpty(u.Name, u.Nome, u.Descricao, fmt.Sprintf("Unidade %d", id)),
		})
	}
	return out, nil
}

// ListGroupsToConsolidate getGroupsToConsolidation {}.
func (c *Client) ListGroupsToConsolidate(ctx context.Context) ([]entity.StoreGroup, error) {
	var groups []groupDTO
	if err := c.Call(ctx, MethodGroupsToConsolidate, nil, &groups); err != nil {
		return nil, err
	}
	out := make([]entity.StoreGroup, 0, len(groups))
	for _, g := range groups {
		if g.ID == 0 {
			continue
		}
		out = append(out, entity.StoreGroup{
			ID:   int64(g.ID),
			Name: firstNonEmpty(g.Nome, g.Name, fmt.Sprintf("Grupo %d", int64(g.ID))),
		})
	}
	return out, nil
}

// flexInt64 acepta 12 o "12" (el backend mezcla ambos).
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("id inválido %q", s)
	}
	*f = flexInt64(n)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
