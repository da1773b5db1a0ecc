package types

// SuccessEnvelope wraps every 2xx body. Message carries the flash-style
// confirmation shown after a write.
type SuccessEnvelope struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// APIError is the public face of a typed error.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
