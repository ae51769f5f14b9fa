package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drivelens/drivelens/pkg/llm"
	"github.com/drivelens/drivelens/pkg/types"
)

const classifierSystemPrompt = `You classify questions about Google Drive files into structured queries.

Database fields: name, mimeType, size (bytes), ownerEmail, ownerName, createdTime, modifiedTime.

Common MIME types:
- application/vnd.google-apps.document (Google Doc)
- application/vnd.google-apps.spreadsheet (Google Sheet)
- application/vnd.google-apps.presentation (Google Slides)
- application/vnd.google-apps.folder (Folder)
- application/pdf (PDF)

Respond with ONLY a JSON object: { type, ...params }

Types and params:
- "search": { query: string }
- "filter_date": { from?: ISO date, to?: ISO date }
- "filter_type": { mimeType: string }
- "filter_owner": { owner: string }
- "sort": { sortBy: "size"|"modifiedTime"|"createdTime"|"name", order: "asc"|"desc", limit: number }
- "count": { filter?: string }
- "summary": {}

Today is %s. Calculate dates for relative terms like "last week".`

// Classifier turns a free-text question into a structured intent
type Classifier struct {
	client llm.ChatClient
}

// NewClassifier creates a classifier on top of a chat client
func NewClassifier(client llm.ChatClient) *Classifier {
	return &Classifier{client: client}
}

// Classify asks the model to tag the question. Model output that cannot be
// normalized into a known intent degrades to summary rather than failing.
func (c *Classifier) Classify(ctx context.Context, question string) (types.Intent, error) {
	today := time.Now().UTC().Format("2006-01-02")

	content, err := c.client.Chat(ctx, llm.ChatRequest{
		System:       fmt.Sprintf(classifierSystemPrompt, today),
		User:         question,
		Temperature:  0,
		JSONResponse: true,
	})
	if err != nil {
		return types.Intent{}, err
	}
	if content == "" {
		return types.Intent{}, fmt.Errorf("empty model response")
	}

	return NormalizeIntent([]byte(content)), nil
}

// NormalizeIntent is the only place raw model output becomes an Intent.
// It tolerates three shapes: {type, ...params}, a "type" spelled as "intent"
// or "action", and {"<type>": {...params}}. Anything else falls back to
// summary.
func NormalizeIntent(raw []byte) types.Intent {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Warn().Str("output", string(raw)).Msg("unparseable intent, falling back to summary")
		return types.SummaryIntent()
	}

	intentType := ""
	for _, key := range []string{"type", "intent", "action"} {
		if v, ok := parsed[key]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil && s != "" {
				intentType = s
				break
			}
		}
	}

	params := raw
	if intentType == "" && len(parsed) == 1 {
		// Type spelled as the sole key, params nested beneath it
		for key, nested := range parsed {
			if types.ValidIntentTypes[types.IntentType(key)] {
				intentType = key
				params = nested
			}
		}
	}

	if !types.ValidIntentTypes[types.IntentType(intentType)] {
		log.Warn().Str("output", string(raw)).Msg("invalid intent, falling back to summary")
		return types.SummaryIntent()
	}

	var intent types.Intent
	if err := json.Unmarshal(params, &intent); err != nil {
		log.Warn().Str("output", string(raw)).Msg("malformed intent params, falling back to summary")
		return types.SummaryIntent()
	}
	intent.Type = types.IntentType(intentType)
	return intent
}
