package apiv1

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/drivelens/drivelens/pkg/auth"
	"github.com/drivelens/drivelens/pkg/drive"
	"github.com/drivelens/drivelens/pkg/repository"
	"github.com/drivelens/drivelens/pkg/types"
)

const (
	defaultFilePageLimit = 25
	maxFilePageLimit     = 100
)

// listSortFields is the allow-list for browse-time sorting
var listSortFields = map[string]bool{
	types.SortByName:         true,
	types.SortByMimeType:     true,
	types.SortByOwnerEmail:   true,
	types.SortByModifiedTime: true,
}

// Remote is the subset of the Drive API the file routes write through
type Remote interface {
	Rename(ctx context.Context, token, fileID, name string) (*drive.File, error)
	Trash(ctx context.Context, token, fileID string) error
}

// TokenSource produces a valid access token for an account
type TokenSource interface {
	AccessToken(ctx context.Context, accountID string) (string, error)
}

// FileGroup serves the mirrored file listing and write-through mutations
type FileGroup struct {
	files       repository.FileRepository
	remote      Remote
	tokens      TokenSource
	routerGroup *echo.Group
}

// NewFileGroup creates and registers file routes
func NewFileGroup(g *echo.Group, files repository.FileRepository, remote Remote, tokens TokenSource) *FileGroup {
	group := &FileGroup{files: files, remote: remote, tokens: tokens, routerGroup: g}

	g.GET("", auth.WithAuth(group.List))
	g.GET("/:fileId", auth.WithAuth(group.Get))
	g.PUT("/:fileId", auth.WithAuth(group.Rename))
	g.DELETE("/:fileId", auth.WithAuth(group.Trash))

	return group
}

// List returns one page of non-trashed files with search, date filtering
// and sorting
func (f *FileGroup) List(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(c, "limit", defaultFilePageLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxFilePageLimit {
		limit = maxFilePageLimit
	}

	q := types.FileQuery{
		NameContains: strings.TrimSpace(c.QueryParam("search")),
		SortBy:       types.SortByModifiedTime,
		Order:        types.OrderDesc,
		Limit:        limit,
		Offset:       (page - 1) * limit,
	}
	if sortBy := c.QueryParam("sortBy"); listSortFields[sortBy] {
		q.SortBy = sortBy
	}
	if c.QueryParam("order") == types.OrderAsc {
		q.Order = types.OrderAsc
	}
	q.ModifiedAfter = parseQueryDate(c.QueryParam("from"))
	q.ModifiedBefore = parseQueryDate(c.QueryParam("to"))

	var (
		records []types.FileRecord
		total   int64
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		records, err = f.files.ListFiles(groupCtx, accountID, q)
		return err
	})
	group.Go(func() error {
		var err error
		total, err = f.files.CountFiles(groupCtx, accountID, q)
		return err
	})
	if err := group.Wait(); err != nil {
		log.Error().Err(err).Msg("file listing failed")
		return HTTPInternalServerError(c, "Failed to fetch files")
	}

	projections := make([]types.FileProjection, 0, len(records))
	for i := range records {
		projections = append(projections, records[i].Project())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"files": projections,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get returns one mirrored file by its Drive id
func (f *FileGroup) Get(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	record, err := f.files.GetFile(ctx, accountID, c.Param("fileId"))
	if err != nil {
		log.Error().Err(err).Msg("file lookup failed")
		return HTTPInternalServerError(c, "Failed to fetch file")
	}
	if record == nil {
		return HTTPNotFound(c, "File not found")
	}

	return c.JSON(http.StatusOK, record.Project())
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename updates the file name on the remote first, then mirrors the change
// locally
func (f *FileGroup) Rename(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return HTTPBadRequest(c, "Invalid request body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return HTTPBadRequest(c, "Name is required")
	}

	fileID := c.Param("fileId")
	record, err := f.files.GetFile(ctx, accountID, fileID)
	if err != nil {
		log.Error().Err(err).Msg("file lookup failed")
		return HTTPInternalServerError(c, "Failed to rename file")
	}
	if record == nil {
		return HTTPNotFound(c, "File not found")
	}

	token, err := f.tokens.AccessToken(ctx, accountID)
	if err != nil {
		return HTTPUnauthorized(c, "Google account not connected")
	}

	remote, err := f.remote.Rename(ctx, token, fileID, name)
	if err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("remote rename failed")
		return f.remoteError(c, err, "Failed to rename file")
	}

	var modifiedTime *time.Time
	if t, parseErr := time.Parse(time.RFC3339, remote.ModifiedTime); parseErr == nil {
		modifiedTime = &t
	}
	if err := f.files.UpdateFileName(ctx, accountID, fileID, name, modifiedTime); err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("local rename failed")
		return HTTPInternalServerError(c, "Failed to rename file")
	}

	updated, err := f.files.GetFile(ctx, accountID, fileID)
	if err != nil || updated == nil {
		return HTTPInternalServerError(c, "Failed to rename file")
	}
	return c.JSON(http.StatusOK, updated.Project())
}

// Trash moves the file to the remote trash and marks the mirror accordingly
func (f *FileGroup) Trash(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	fileID := c.Param("fileId")
	record, err := f.files.GetFile(ctx, accountID, fileID)
	if err != nil {
		log.Error().Err(err).Msg("file lookup failed")
		return HTTPInternalServerError(c, "Failed to delete file")
	}
	if record == nil {
		return HTTPNotFound(c, "File not found")
	}

	token, err := f.tokens.AccessToken(ctx, accountID)
	if err != nil {
		return HTTPUnauthorized(c, "Google account not connected")
	}

	if err := f.remote.Trash(ctx, token, fileID); err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("remote trash failed")
		return f.remoteError(c, err, "Failed to delete file")
	}

	if err := f.files.MarkFileTrashed(ctx, accountID, fileID); err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("local trash failed")
		return HTTPInternalServerError(c, "Failed to delete file")
	}

	return c.NoContent(http.StatusNoContent)
}

// remoteError maps a Drive API failure to its client-facing status. A
// rejected token requires re-authorization, not a retry.
func (f *FileGroup) remoteError(c echo.Context, err error, message string) error {
	var provErr *types.ProviderError
	if errors.As(err, &provErr) && provErr.IsAuthError() {
		return HTTPUnauthorized(c, "Google authorization expired. Please reconnect your account.")
	}
	return HTTPInternalServerError(c, message)
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseQueryDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
