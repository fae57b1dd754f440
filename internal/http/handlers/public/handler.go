package public

import "github.com/neonclub/neon-api/internal/provider"

// Handler serves the distributor portal and enrollment API.
type Handler struct {
	*provider.Container
}

// New creates the portal handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
