package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mercadito/tienda-backend/internal/logging"
	"github.com/mercadito/tienda-backend/internal/mykafka"
)

const internalErrorMsg = "Error interno del servidor"

func respondError(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"msg": msg})
}

// internalError hides the cause from the caller and logs it server-side.
func internalError(c echo.Context, err error) error {
	logging.FromContext(c.Request().Context()).Error("internal error", "err", err)
	return respondError(c, http.StatusInternalServerError, internalErrorMsg)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

// publishEvent is fire-and-forget: a broker outage never fails the request.
func publishEvent(c echo.Context, p *mykafka.Producer, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "topic", topic, "err", err)
	}
}
