package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const Version = "0.1.0"

// ReadinessCheck is one dependency probed by /ready
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	provider string
	checks   []ReadinessCheck
}

func NewHealthHandler(provider string, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		provider: provider,
		checks:   checks,
	}
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version,omitempty"`
	Provider string            `json:"provider,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:   "ok",
		Version:  Version,
		Provider: h.provider,
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ready", Provider: h.provider}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}

	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Checks[check.Name] = err.Error()
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	if resp.Status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
