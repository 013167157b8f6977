package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError campo rechazado por la validación.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// HealthResponse respuesta de /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Redis   bool   `json:"redis"`
}
