package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse estado del servicio.
type HealthResponse struct {
	Status string `json:"status"`
	App    string `json:"app"`
}

// LogsResponse últimas líneas del buffer de logs.
type LogsResponse struct {
	Lines []string `json:"lines"`
	Count int      `json:"count"`
}
