package gemini

import (
	"fmt"
	"strings"
	"time"

	"github.com/minsupark/paperlens/internal/jsonschema"
	"github.com/minsupark/paperlens/providers/ai"
)

// request is the wire shape of a generateContent call.
type request struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens  int                `json:"maxOutputTokens,omitempty"`
	Temperature      float32            `json:"temperature,omitempty"`
	ResponseMimeType string             `json:"responseMimeType,omitempty"`
	ResponseSchema   *jsonschema.Schema `json:"responseSchema,omitempty"`
}

type response struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
	ResponseID    string         `json:"responseId,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

// requestFromGeneric converts the provider-agnostic request into the Gemini
// wire format. Gemini carries the system prompt in a dedicated field and
// names the assistant role "model".
func requestFromGeneric(generic ai.ChatRequest) request {
	contents := make([]content, 0, len(generic.Messages))
	for _, genericMessage := range generic.Messages {
		role := string(genericMessage.Role)
		if genericMessage.Role == ai.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: genericMessage.Content}},
		})
	}

	wireRequest := request{Contents: contents}

	if generic.SystemPrompt != "" {
		wireRequest.SystemInstruction = &content{Parts: []part{{Text: generic.SystemPrompt}}}
	}

	config := &generationConfig{}
	hasConfig := false

	if generic.GenerationConfig != nil {
		config.MaxOutputTokens = generic.GenerationConfig.MaxTokens
		config.Temperature = generic.GenerationConfig.Temperature
		hasConfig = true
	}

	if generic.ResponseFormat != nil {
		if generic.ResponseFormat.OutputSchema != nil {
			config.ResponseMimeType = "application/json"
			config.ResponseSchema = sanitizeSchema(generic.ResponseFormat.OutputSchema)
			hasConfig = true
		} else if generic.ResponseFormat.Type == "json_object" {
			config.ResponseMimeType = "application/json"
			hasConfig = true
		}
	}

	if hasConfig {
		wireRequest.GenerationConfig = config
	}

	return wireRequest
}

// sanitizeSchema returns a copy of the schema with additionalProperties
// removed at every level, since the Gemini API rejects that keyword.
func sanitizeSchema(schema *jsonschema.Schema) *jsonschema.Schema {
	if schema == nil {
		return nil
	}

	clean := *schema
	clean.AdditionalProperties = nil

	if schema.Properties != nil {
		clean.Properties = make(map[string]*jsonschema.Schema, len(schema.Properties))
		for name, property := range schema.Properties {
			clean.Properties[name] = sanitizeSchema(property)
		}
	}
	clean.Items = sanitizeSchema(schema.Items)

	return &clean
}

// responseToGeneric converts the Gemini wire response into the
// provider-agnostic shape, concatenating the first candidate's text parts.
func responseToGeneric(model string, wireResponse response) (*ai.ChatResponse, error) {
	if len(wireResponse.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	first := wireResponse.Candidates[0]
	var builder strings.Builder
	for _, candidatePart := range first.Content.Parts {
		builder.WriteString(candidatePart.Text)
	}

	generic := &ai.ChatResponse{
		Id:           wireResponse.ResponseID,
		Model:        model,
		Created:      time.Now().Unix(),
		Content:      builder.String(),
		FinishReason: first.FinishReason,
	}

	if wireResponse.UsageMetadata != nil {
		generic.Usage = &ai.Usage{
			PromptTokens:     wireResponse.UsageMetadata.PromptTokenCount,
			CompletionTokens: wireResponse.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      wireResponse.UsageMetadata.TotalTokenCount,
		}
	}

	return generic, nil
}
