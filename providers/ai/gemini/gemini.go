package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/minsupark/paperlens/internal/utils"
	"github.com/minsupark/paperlens/providers/ai"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements the Provider interface for the Google Gemini
// generateContent API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*GeminiProvider)(nil)

// New creates a new Gemini provider instance with default values.
// The API key is read from GEMINI_API_KEY.
func New() *GeminiProvider {
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GeminiProvider{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (p *GeminiProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *GeminiProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *GeminiProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage implements the Provider interface.
func (p *GeminiProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("API key is not set")
	}
	if request.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, request.Model)
	headers := map[string]string{"x-goog-api-key": p.apiKey}

	httpResponse, resp, err := utils.DoPostSync[response](ctx, p.client, url, headers, requestFromGeneric(request))
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, fmt.Errorf("empty response from Gemini API: %s", httpResponse.Status)
	}

	return responseToGeneric(request.Model, *resp)
}
