package query

import (
	"context"
	"strings"
	"testing"

	"github.com/drivelens/drivelens/pkg/llm"
	"github.com/drivelens/drivelens/pkg/types"
)

type fakeChatClient struct {
	lastRequest llm.ChatRequest
	response    string
	err         error
}

func (f *fakeChatClient) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.lastRequest = req
	return f.response, f.err
}

func TestAnswerStripsLinks(t *testing.T) {
	client := &fakeChatClient{response: "You have one budget file."}
	answerer := NewAnswerer(client)

	size := 100.0
	result := &types.QueryResult{
		Files: []types.FileProjection{
			{FileID: "f1", Name: "budget", Size: &size, WebViewLink: "https://drive.google.com/secret-link"},
		},
	}

	answer, err := answerer.Answer(context.Background(), "how many budgets?", result)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "You have one budget file." {
		t.Errorf("unexpected answer: %q", answer)
	}

	if strings.Contains(client.lastRequest.User, "secret-link") {
		t.Error("expected web view link to be stripped from model input")
	}
	if !strings.Contains(client.lastRequest.User, "budget") {
		t.Error("expected file data in model input")
	}

	// Original result is untouched
	if result.Files[0].WebViewLink == "" {
		t.Error("expected original result to keep its link")
	}
}

func TestAnswerFallbackOnEmptyResponse(t *testing.T) {
	answerer := NewAnswerer(&fakeChatClient{response: ""})

	answer, err := answerer.Answer(context.Background(), "anything?", &types.QueryResult{})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "I couldn't generate an answer." {
		t.Errorf("unexpected fallback: %q", answer)
	}
}
