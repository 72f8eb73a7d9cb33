package control

import "time"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Crawler       string    `json:"crawler"`
	Height        uint64    `json:"height"`
	Watched       int       `json:"watched_addresses"`
	ReloadPending bool      `json:"reload_pending"`
}

// IdentityResponse describes the running service.
type IdentityResponse struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Network       string `json:"network"`
	TokenContract string `json:"token_contract"`
}

// ActionResponse acknowledges a control request. The action takes effect at
// the next iteration of the crawler loop.
type ActionResponse struct {
	Status string `json:"status"`
}
