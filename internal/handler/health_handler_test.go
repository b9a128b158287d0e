package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/config"
	"github.com/noah-isme/gau-id-api/internal/handler"
)

func TestHealthCheckReportsProbes(t *testing.T) {
	cfg := config.Config{AppName: "GAU ID View API", AppEnv: "test"}

	healthy := fiber.New()
	healthy.Get("/health", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
	}))

	resp := doJSON(t, healthy, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload handler.HealthResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &payload))
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, "up", payload.Dependencies["database"])

	degraded := fiber.New()
	degraded.Get("/health", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}))

	resp = doJSON(t, degraded, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &payload))
	require.Equal(t, "degraded", payload.Status)
	require.Equal(t, "down", payload.Dependencies["redis"])
}
