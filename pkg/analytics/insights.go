package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/drivelens/drivelens/pkg/llm"
	"github.com/drivelens/drivelens/pkg/types"
)

const insightsSystemPrompt = `You are a Google Drive analytics assistant.
You will receive a JSON object with aggregated file statistics.
Return a JSON object: { "insights": ["...", ...] }
Rules:
- Provide 3 to 5 actionable insights about the user's Drive data.
- Only use facts present in the provided JSON. Do not invent numbers, percentages, dates, or file types not in the data.
- If a claim requires a number not present, phrase qualitatively or omit.
- Each insight must be a single plain sentence, max 200 characters.
- No markdown, no bullets, no numbering, no special formatting.`

// maxInsightLength drops any model sentence longer than this
const maxInsightLength = 200

// InsightsGenerator produces short prose observations from an aggregate
type InsightsGenerator struct {
	client llm.ChatClient
}

// NewInsightsGenerator creates a generator on top of a chat client
func NewInsightsGenerator(client llm.ChatClient) *InsightsGenerator {
	return &InsightsGenerator{client: client}
}

// Generate asks the model for insights over the aggregate. Non-string and
// over-long items in the model output are filtered out rather than failing.
func (g *InsightsGenerator) Generate(ctx context.Context, data *types.AnalyticsResult) ([]string, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode analytics: %w", err)
	}

	content, err := g.client.Chat(ctx, llm.ChatRequest{
		System:       insightsSystemPrompt,
		User:         string(encoded),
		Temperature:  0.3,
		MaxTokens:    600,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	return parseInsights(content), nil
}

// parseInsights extracts the usable strings from raw model output. Anything
// unparseable yields an empty slice, never an error.
func parseInsights(raw string) []string {
	var parsed struct {
		Insights []json.RawMessage `json:"insights"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []string{}
	}

	insights := make([]string, 0, len(parsed.Insights))
	for _, item := range parsed.Insights {
		var s string
		if json.Unmarshal(item, &s) != nil {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || len(s) > maxInsightLength {
			continue
		}
		insights = append(insights, s)
	}
	return insights
}
