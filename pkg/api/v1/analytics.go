package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/drivelens/drivelens/pkg/analytics"
	"github.com/drivelens/drivelens/pkg/auth"
	"github.com/drivelens/drivelens/pkg/limiter"
)

// AnalyticsGroup serves the corpus aggregate and model-generated insights
type AnalyticsGroup struct {
	service     *analytics.Service
	insights    *analytics.InsightsGenerator
	cache       *analytics.InsightsCache
	limiter     *limiter.SlidingWindow
	configured  bool
	routerGroup *echo.Group
}

// NewAnalyticsGroup creates and registers analytics routes
func NewAnalyticsGroup(g *echo.Group, service *analytics.Service, insights *analytics.InsightsGenerator, cache *analytics.InsightsCache, rateLimiter *limiter.SlidingWindow, configured bool) *AnalyticsGroup {
	group := &AnalyticsGroup{
		service:     service,
		insights:    insights,
		cache:       cache,
		limiter:     rateLimiter,
		configured:  configured,
		routerGroup: g,
	}

	g.GET("", auth.WithAuth(group.Summary))
	g.GET("/insights", auth.WithAuth(group.Insights))

	return group
}

// Summary returns the deterministic aggregate over the account's corpus
func (a *AnalyticsGroup) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	data, err := a.service.Compute(ctx, accountID)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID).Msg("analytics failed")
		return HTTPInternalServerError(c, "Failed to compute analytics")
	}

	return c.JSON(http.StatusOK, data)
}

// Insights returns cached or freshly generated prose observations over the
// aggregate
func (a *AnalyticsGroup) Insights(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	if !a.configured {
		return HTTPServiceUnavailable(c, "OpenAI API key not configured")
	}

	if !a.limiter.Allow(accountID) {
		return HTTPTooManyRequests(c, "Too many requests. Please wait a minute.")
	}

	data, err := a.service.Compute(ctx, accountID)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID).Msg("analytics failed")
		return HTTPInternalServerError(c, "Failed to compute analytics")
	}

	key := analytics.Fingerprint(accountID, data)
	if cached, ok := a.cache.Get(key); ok {
		return c.JSON(http.StatusOK, map[string][]string{"insights": cached})
	}

	insights, err := a.insights.Generate(ctx, data)
	if err != nil {
		log.Error().Err(err).Msg("insights generation failed")
		return ErrorResponse(c, http.StatusBadGateway, "AI insights unavailable")
	}

	a.cache.Put(key, insights)
	return c.JSON(http.StatusOK, map[string][]string{"insights": insights})
}
