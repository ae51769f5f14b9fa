package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/drivelens/drivelens/pkg/llm"
	"github.com/drivelens/drivelens/pkg/types"
)

const answerSystemPrompt = "You answer questions about Google Drive files based on query results. " +
	"Be concise (2-3 sentences). The results may contain a files array and/or a stats object with " +
	"topTypes, topOwners, uniqueOwners, and dateDistribution. Use all available data to answer the " +
	"question. Only use data from the provided results — do not invent or assume information. " +
	"Never include links or URLs in your response."

const answerFallback = "I couldn't generate an answer."

// Answerer turns a query result back into prose
type Answerer struct {
	client llm.ChatClient
}

// NewAnswerer creates an answerer on top of a chat client
func NewAnswerer(client llm.ChatClient) *Answerer {
	return &Answerer{client: client}
}

// Answer asks the model to summarize the result for the original question.
// File links are stripped before the result reaches the model.
func (a *Answerer) Answer(ctx context.Context, question string, result *types.QueryResult) (string, error) {
	sanitized := types.QueryResult{
		Files: make([]types.FileProjection, len(result.Files)),
		Total: result.Total,
		Stats: result.Stats,
	}
	for i, f := range result.Files {
		f.WebViewLink = ""
		sanitized.Files[i] = f
	}

	encoded, err := json.Marshal(sanitized)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	content, err := a.client.Chat(ctx, llm.ChatRequest{
		System:      answerSystemPrompt,
		User:        fmt.Sprintf("Question: %s\n\nQuery results: %s", question, encoded),
		Temperature: 0.3,
		MaxTokens:   300,
	})
	if err != nil {
		return "", err
	}
	if content == "" {
		return answerFallback, nil
	}
	return content, nil
}
