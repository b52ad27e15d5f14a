package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minsupark/paperlens/internal/jsonschema"
	"github.com/minsupark/paperlens/providers/ai"
)

func TestSendMessage(t *testing.T) {
	var captured request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response{
			ResponseID: "resp-1",
			Candidates: []candidate{
				{
					Content:      content{Role: "model", Parts: []part{{Text: "hello "}, {Text: "world"}}},
					FinishReason: "STOP",
				},
			},
			UsageMetadata: &usageMetadata{PromptTokenCount: 8, CandidatesTokenCount: 2, TotalTokenCount: 10},
		})
	}))
	defer server.Close()

	provider := New().WithAPIKey("test-key").WithBaseURL(server.URL)

	resp, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:        "gemini-2.0-flash",
		SystemPrompt: "You are terse.",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "say hello"},
		},
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if resp.Content != "hello world" {
		t.Errorf("expected joined parts, got %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 10 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}

	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "You are terse." {
		t.Errorf("system instruction not set: %+v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 1 || captured.Contents[0].Role != "user" {
		t.Errorf("unexpected contents: %+v", captured.Contents)
	}
}

func TestSendMessageMissingModel(t *testing.T) {
	provider := New().WithAPIKey("test-key")

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{})
	if err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestRequestFromGenericStructuredOutput(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title": {Type: "string"},
		},
		AdditionalProperties: false,
	}

	wireRequest := requestFromGeneric(ai.ChatRequest{
		Model: "gemini-2.0-flash",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "extract"},
		},
		ResponseFormat: &ai.ResponseFormat{OutputSchema: schema},
	})

	config := wireRequest.GenerationConfig
	if config == nil || config.ResponseMimeType != "application/json" {
		t.Fatalf("expected JSON response mime type, got %+v", config)
	}
	if config.ResponseSchema.AdditionalProperties != nil {
		t.Error("additionalProperties should be stripped for the Gemini API")
	}
	if config.ResponseSchema.Properties["title"] == nil {
		t.Error("nested properties should be preserved")
	}
}

func TestRequestFromGenericAssistantRole(t *testing.T) {
	wireRequest := requestFromGeneric(ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "hi"},
			{Role: ai.RoleAssistant, Content: "hello"},
		},
	})

	if wireRequest.Contents[1].Role != "model" {
		t.Errorf("assistant role should map to model, got %q", wireRequest.Contents[1].Role)
	}
}
