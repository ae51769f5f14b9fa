package apiv1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/drivelens/drivelens/pkg/auth"
	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/sync"
	"github.com/drivelens/drivelens/pkg/types"
)

// SyncGroup triggers sync runs and reports mirror freshness
type SyncGroup struct {
	engine      *sync.Engine
	files       repository.FileRepository
	routerGroup *echo.Group
}

// NewSyncGroup creates and registers sync routes
func NewSyncGroup(g *echo.Group, engine *sync.Engine, files repository.FileRepository) *SyncGroup {
	group := &SyncGroup{engine: engine, files: files, routerGroup: g}

	g.POST("", auth.WithAuth(group.Run))
	g.GET("/status", auth.WithAuth(group.Status))

	return group
}

// Run performs a full synchronous mirror of the account's Drive corpus
func (s *SyncGroup) Run(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	result, err := s.engine.Run(ctx, accountID)
	if err != nil {
		if errors.Is(err, types.ErrCredentialNotFound) {
			return HTTPUnauthorized(c, "Google account not connected")
		}
		var provErr *types.ProviderError
		if errors.As(err, &provErr) && provErr.IsAuthError() {
			return HTTPUnauthorized(c, "Google authorization expired. Please reconnect your account.")
		}
		log.Error().Err(err).Str("account_id", accountID).Msg("sync failed")
		return HTTPInternalServerError(c, "Sync failed")
	}

	_, lastSyncedAt, err := s.files.SyncStatus(ctx, accountID)
	if err != nil {
		log.Error().Err(err).Msg("sync status lookup failed")
		return HTTPInternalServerError(c, "Failed to get sync status")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"synced":       result.FilesSynced,
		"lastSyncedAt": lastSyncedAt,
	})
}

// Status reports the mirrored file count and last sync time
func (s *SyncGroup) Status(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	count, lastSyncedAt, err := s.files.SyncStatus(ctx, accountID)
	if err != nil {
		log.Error().Err(err).Msg("sync status lookup failed")
		return HTTPInternalServerError(c, "Failed to get sync status")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"fileCount":    count,
		"lastSyncedAt": lastSyncedAt,
	})
}
