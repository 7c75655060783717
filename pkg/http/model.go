package http

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// APIResponse400Err carries one entry per rejected query parameter.
type APIResponse400Err struct {
	Status  int               `json:"status" example:"400"`
	Message string            `json:"message" example:"Bad Request"`
	Data    []ValidationError `json:"data,omitempty"`
}

// APIResponse404Err lists the known instruments in the error params.
type APIResponse404Err struct {
	Status  int        `json:"status" example:"404"`
	Message string     `json:"message" example:"Not Found"`
	Data    []AppError `json:"data,omitempty"`
}

// APIResponse503Err is returned while an instrument has no cached entry yet.
type APIResponse503Err struct {
	Status  int        `json:"status" example:"503"`
	Message string     `json:"message" example:"Service Unavailable"`
	Data    []AppError `json:"data,omitempty"`
}

type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_ONEOF"`
	Field   string                 `json:"field,omitempty" example:"timeframe"`
	Message string                 `json:"message,omitempty" example:"timeframe must be one of: 1m, 5m, 15m"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
