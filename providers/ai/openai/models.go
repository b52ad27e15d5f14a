package openai

import (
	"github.com/minsupark/paperlens/internal/jsonschema"
	"github.com/minsupark/paperlens/providers/ai"
)

// request is the wire shape of a chat-completions call.
type request struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string             `json:"name"`
	Schema *jsonschema.Schema `json:"schema"`
	Strict bool               `json:"strict,omitempty"`
}

type response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage,omitempty"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// requestFromGeneric converts the provider-agnostic request into the OpenAI
// wire format. The system prompt becomes the leading message.
func requestFromGeneric(generic ai.ChatRequest) request {
	messages := make([]message, 0, len(generic.Messages)+1)
	if generic.SystemPrompt != "" {
		messages = append(messages, message{Role: string(ai.RoleSystem), Content: generic.SystemPrompt})
	}
	for _, genericMessage := range generic.Messages {
		messages = append(messages, message{Role: string(genericMessage.Role), Content: genericMessage.Content})
	}

	wireRequest := request{
		Model:    generic.Model,
		Messages: messages,
	}

	if generic.GenerationConfig != nil {
		wireRequest.MaxTokens = generic.GenerationConfig.MaxTokens
		wireRequest.Temperature = generic.GenerationConfig.Temperature
	}

	if generic.ResponseFormat != nil {
		if generic.ResponseFormat.OutputSchema != nil {
			wireRequest.ResponseFormat = &responseFormat{
				Type: "json_schema",
				JSONSchema: &jsonSchemaSpec{
					Name:   "structured_output",
					Schema: generic.ResponseFormat.OutputSchema,
					Strict: generic.ResponseFormat.Strict,
				},
			}
		} else if generic.ResponseFormat.Type == "json_object" {
			wireRequest.ResponseFormat = &responseFormat{Type: "json_object"}
		}
	}

	return wireRequest
}

// responseToGeneric converts the OpenAI wire response into the
// provider-agnostic shape, taking the first choice.
func responseToGeneric(wireResponse response) *ai.ChatResponse {
	generic := &ai.ChatResponse{
		Id:           wireResponse.ID,
		Model:        wireResponse.Model,
		Created:      wireResponse.Created,
		Content:      wireResponse.Choices[0].Message.Content,
		FinishReason: wireResponse.Choices[0].FinishReason,
	}

	if wireResponse.Usage != nil {
		generic.Usage = &ai.Usage{
			PromptTokens:     wireResponse.Usage.PromptTokens,
			CompletionTokens: wireResponse.Usage.CompletionTokens,
			TotalTokens:      wireResponse.Usage.TotalTokens,
		}
	}

	return generic
}
