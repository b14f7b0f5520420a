package transport

import (
	"time"

	"github.com/fastygo/taskboard/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Errors  map[string]string `json:"errors,omitempty"`
	// Error carries internal detail and is only filled in development.
	Error string `json:"error,omitempty"`
}

// AuthResponse flattens the user next to the issued token.
type AuthResponse struct {
	*domain.User
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ProfileResponse struct {
	*domain.User
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ServiceStatus struct {
	Online bool `json:"online"`
}

type BufferStatus struct {
	Online bool `json:"online"`
	Size   int  `json:"size"`
}

type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Postgres  ServiceStatus `json:"postgresql"`
	Redis     ServiceStatus `json:"redis"`
	Buffer    BufferStatus  `json:"buffer"`
}
