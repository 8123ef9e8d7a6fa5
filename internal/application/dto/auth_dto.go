package dto

// LoginRequest credenciales del panel de operación.
type LoginRequest struct {
	Usuario string `json:"usuario"`
	Senha   string `json:"senha"`
}

// LoginResponse token emitido tras un login correcto.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"` // segundos
	Operator  string `json:"operator,omitempty"`
}
