package http

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_ONEOF"`
	Field   string                 `json:"field,omitempty" example:"intervals[0]"`
	Message string                 `json:"message,omitempty" example:"intervals[0] must be one of: 5, 15, 30, 60, 240, 720"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
