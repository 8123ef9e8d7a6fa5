package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/backend"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

type capturedRequest struct {
	Method string         `json:"method"`
	Token  string         `json:"token"`
	Data   map[string]any `json:"data"`
}

func newServer(t *testing.T, status int, response string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListStoresByGroup_CamposFlexibles(t *testing.T) {
	var got capturedRequest
	srv := newServer(t, http.StatusOK, `[
		{"system_unit_id": "9", "name": "Loja Centro", "custom_code": "LC"},
		{"id": 3, "nome": "Loja Norte"},
		{"id": 4, "descricao": "Quiosque"},
		{"id": 5},
		{"name": "sem id"}
	]`, &got)
	c := backend.NewClient(srv.URL, "tok-123", time.Second, logger.Nop())

	units, err := c.ListStoresByGroup(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, backend.MethodUnitsByGroup, got.Method)
	assert.Equal(t, "tok-123", got.Token)
	assert.EqualValues(t, 1, got.Data["group_id"])

	require.Len(t, units, 4)
	assert.Equal(t, int64(9), units[0].ID)
	assert.Equal(t, "Loja Centro", units[0].Name)
	assert.Equal(t, "LC", units[0].CustomCode)
	assert.Equal(t, "Loja Norte", units[1].Name)
	assert.Equal(t, "Quiosque", units[2].Name)
	assert.Equal(t, "Unidade 5", units[3].Name)
}

func TestListGroupsToConsolidate(t *testing.T) {
	var got capturedRequest
	srv := newServer(t, http.StatusOK, `[{"id": 1, "nome": "Rede Sul"}, {"id": "2"}]`, &got)
	c := backend.NewClient(srv.URL, "tok", time.Second, nil)

	groups, err := c.ListGroupsToConsolidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, backend.MethodGroupsToConsolidate, got.Method)
	require.Len(t, groups, 2)
	assert.Equal(t, "Rede Sul", groups[0].Name)
	assert.Equal(t, "Grupo 2", groups[1].Name)
}

func TestCall_ErrorHTTP(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `upstream down`, nil)
	c := backend.NewClient(srv.URL, "tok", time.Second, nil)

	_, err := c.ListStoresByGroup(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestCall_RespuestaNoLista(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"error": "token inválido"}`, nil)
	c := backend.NewClient(srv.URL, "tok", time.Second, nil)

	_, err := c.ListStoresByGroup(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "respuesta inesperada")
}

func TestCall_SinURL(t *testing.T) {
	c := backend.NewClient("", "tok", 0, nil)
	_, err := c.ListGroupsToConsolidate(context.Background())
	assert.Error(t, err)
}
