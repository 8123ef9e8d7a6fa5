package dto

import (
	"time"

	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
)

// RunFlowRequest cuerpo de POST /api/run/fluxo. Fechas YYYY-MM-DD; vacías = últimos días hasta ayer.
type RunFlowRequest struct {
	GroupID  int64   `json:"group_id"`
	StoreIDs []int64 `json:"store_ids"`
	DtInicio string  `json:"dt_inicio"`
	DtFim    string  `json:"dt_fim"`
}

// RunConsolidationRequest cuerpo de POST /api/run/consolidacao. Data vacía = ayer; AllGroups ignora GroupID.
type RunConsolidationRequest struct {
	GroupID   int64   `json:"group_id"`
	StoreIDs  []int64 `json:"store_ids"`
	Data      string  `json:"data"`
	Force     bool    `json:"force"`
	AllGroups bool    `json:"all_groups"`
}

// ProductFailureResponse producto fallido u omitido.
type ProductFailureResponse struct {
	Produto string `json:"produto"`
	Status  string `json:"status"`
	Motivo  string `json:"motivo"`
}

// StoreReportResponse resumen por tienda.
type StoreReportResponse struct {
	StoreID   int64                    `json:"system_unit_id"`
	Nome      string                   `json:"nome"`
	Status    string                   `json:"status"`
	Produtos  int                      `json:"produtos"`
	OK        int                      `json:"ok"`
	Falhas    int                      `json:"falhas"`
	Ignorados int                      `json:"ignorados"`
	Registros int                      `json:"registros"`
	Erro      string                   `json:"erro,omitempty"`
	Detalhes  []ProductFailureResponse `json:"detalhes,omitempty"`
}

// BatchReportResponse resumen de una ejecución.
type BatchReportResponse struct {
	RunID      string                `json:"run_id"`
	Modo       string                `json:"modo"`
	GroupID    int64                 `json:"group_id"`
	DtInicio   string                `json:"dt_inicio"`
	DtFim      string                `json:"dt_fim"`
	Force      bool                  `json:"force,omitempty"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Totais     appinv.Totals         `json:"totais"`
	Lojas      []StoreReportResponse `json:"lojas"`
}

// ReloadResponse resultado de recargar los disparos.
type ReloadResponse struct {
	Agendados int `json:"agendados"`
}

// ToBatchReportResponse convierte el reporte de la capa de aplicación.
func ToBatchReportResponse(rep *appinv.BatchReport) BatchReportResponse {
	out := BatchReportResponse{
		RunID:      rep.RunID,
		Modo:       rep.Mode,
		GroupID:    rep.GroupID,
		DtInicio:   domaininv.DateKey(rep.Window.From),
		DtFim:      domaininv.DateKey(rep.Window.To),
		Force:      rep.Force,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		Totais:     rep.Totals(),
		Lojas:      make([]StoreReportResponse, 0, len(rep.Stores)),
	}
	for _, s := range rep.Stores {
		sr := StoreReportResponse{
			StoreID:   s.StoreID,
			Nome:      s.StoreName,
			Status:    string(s.Status),
			Produtos:  s.Products,
			OK:        s.OK,
			Falhas:    s.Failed,
			Ignorados: s.Skipped,
			Registros: s.Records,
			Erro:      s.Error,
		}
		for _, f := range s.Failures {
			sr.Detalhes = append(sr.Detalhes, ProductFailureResponse{Produto: f.ProductCode, Status: string(f.Status), Motivo: f.Reason})
		}
		out.Lojas = append(out.Lojas, sr)
	}
	return out
}
