package dto

// ErrorResponse cuerpo de error HTTP. Code es el identificador estable del caso
// (SLUG_TAKEN, USER_LIMIT_REACHED...); Error es el mensaje para el usuario final.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// SuccessResponse confirmación sin datos.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse respuesta de /health.
type HealthResponse struct {
	Status string `json:"status"`
}
