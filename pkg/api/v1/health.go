package apiv1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Pinger is the storage liveness check the health endpoint depends on
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthGroup struct {
	pinger      Pinger
	routerGroup *echo.Group
}

func NewHealthGroup(g *echo.Group, pinger Pinger) *HealthGroup {
	group := &HealthGroup{routerGroup: g, pinger: pinger}

	g.GET("", group.HealthCheck)

	return group
}

func (h *HealthGroup) HealthCheck(c echo.Context) error {
	if err := h.pinger.Ping(c.Request().Context()); err != nil {
		log.Error().Err(err).Msg("health check failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "not ok",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
