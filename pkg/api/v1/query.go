package apiv1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/drivelens/drivelens/pkg/auth"
	"github.com/drivelens/drivelens/pkg/limiter"
	"github.com/drivelens/drivelens/pkg/llm"
	"github.com/drivelens/drivelens/pkg/query"
	"github.com/drivelens/drivelens/pkg/types"
)

// QueryGroup answers natural-language questions about the mirrored corpus
type QueryGroup struct {
	classifier  *query.Classifier
	executor    *query.Executor
	answerer    *query.Answerer
	limiter     *limiter.SlidingWindow
	configured  bool
	routerGroup *echo.Group
}

// NewQueryGroup creates and registers the query route. configured reports
// whether a model provider is available; without one the route returns
// service unavailable.
func NewQueryGroup(g *echo.Group, classifier *query.Classifier, executor *query.Executor, answerer *query.Answerer, rateLimiter *limiter.SlidingWindow, configured bool) *QueryGroup {
	group := &QueryGroup{
		classifier:  classifier,
		executor:    executor,
		answerer:    answerer,
		limiter:     rateLimiter,
		configured:  configured,
		routerGroup: g,
	}

	g.POST("", auth.WithAuth(group.Ask))

	return group
}

type askRequest struct {
	Question string `json:"question"`
}

// askResponse omits total and stats unless the executed intent produced them
type askResponse struct {
	Question string                 `json:"question"`
	Answer   string                 `json:"answer"`
	Intent   types.IntentType       `json:"intent"`
	Files    []types.FileProjection `json:"files"`
	Total    *int64                 `json:"total,omitempty"`
	Stats    *types.SummaryStats    `json:"stats,omitempty"`
}

// Ask runs the classify, execute, answer pipeline for one question
func (q *QueryGroup) Ask(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	var req askRequest
	if err := c.Bind(&req); err != nil {
		return HTTPBadRequest(c, "Question is required")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return HTTPBadRequest(c, "Question is required")
	}

	if !q.configured {
		return HTTPServiceUnavailable(c, "OpenAI API key not configured")
	}

	if !q.limiter.Allow(accountID) {
		return HTTPTooManyRequests(c, "Too many queries. Please wait a minute.")
	}

	intent, err := q.classifier.Classify(ctx, question)
	if err != nil {
		return q.modelError(c, err, "intent classification failed")
	}

	result, err := q.executor.Execute(ctx, accountID, intent)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID).Msg("intent execution failed")
		return HTTPInternalServerError(c, "Failed to process question: "+err.Error())
	}

	answer, err := q.answerer.Answer(ctx, question, result)
	if err != nil {
		return q.modelError(c, err, "answer generation failed")
	}

	return c.JSON(http.StatusOK, askResponse{
		Question: question,
		Answer:   answer,
		Intent:   intent.Type,
		Files:    result.Files,
		Total:    result.Total,
		Stats:    result.Stats,
	})
}

func (q *QueryGroup) modelError(c echo.Context, err error, msg string) error {
	log.Error().Err(err).Msg(msg)

	if llm.IsRateLimited(err) {
		return HTTPTooManyRequests(c, "AI rate limit exceeded. Please try again later.")
	}
	if llm.IsAuthError(err) {
		return HTTPServiceUnavailable(c, "OpenAI authentication failed")
	}
	return ErrorResponse(c, http.StatusBadGateway, "Failed to process question: "+err.Error())
}
