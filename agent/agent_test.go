package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/core/client"
	"github.com/minsupark/paperlens/providers/ai"
	"github.com/minsupark/paperlens/providers/extract"
)

// scriptedProvider answers every request with a fixed response chosen per
// node when the registry builds its clients.
type scriptedProvider struct {
	respond func(prompt string) (string, error)
}

func (s *scriptedProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	prompt := ""
	if len(request.Messages) > 0 {
		prompt = request.Messages[len(request.Messages)-1].Content
	}
	content, err := s.respond(prompt)
	if err != nil {
		return nil, err
	}
	return &ai.ChatResponse{Content: content}, nil
}

func (s *scriptedProvider) WithAPIKey(string) ai.Provider           { return s }
func (s *scriptedProvider) WithBaseURL(string) ai.Provider          { return s }
func (s *scriptedProvider) WithHttpClient(*http.Client) ai.Provider { return s }

// scriptedRegistry builds a registry whose node clients reply from the
// given script. Nodes without an entry fail loudly.
func scriptedRegistry(t *testing.T, script map[string]string) *client.Registry {
	t.Helper()
	registry, err := client.NewRegistry(func(nodeName string) (*client.Client, error) {
		return client.New(&scriptedProvider{respond: func(string) (string, error) {
			response, ok := script[nodeName]
			if !ok {
				return "", fmt.Errorf("no scripted response for node %q", nodeName)
			}
			return response, nil
		}}, client.WithModel("stub:model"))
	})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return registry
}

// fixedConverter returns a canned document regardless of the input path.
type fixedConverter struct {
	pages []string
}

func (f *fixedConverter) Convert(string) (*extract.Document, error) {
	return &extract.Document{Pages: f.pages}, nil
}

func testSettings() *config.Settings {
	return &config.Settings{
		InputPath:         "paper.txt",
		TargetLanguage:    "en",
		MaxAnalysisLength: 500,
		PaperType:         config.PaperTypeAuto,
		LLM:               config.LLMSettings{DefaultModel: "openai:gpt-4o-mini"},
	}
}

func TestNewRequiresSettings(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil settings")
	}
}

func TestBuildGraph(t *testing.T) {
	a, err := New(testSettings(), WithClientRegistry(scriptedRegistry(t, nil)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := a.BuildGraph(); err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
}

func TestProviderForModel(t *testing.T) {
	for _, identifier := range []string{"openai:gpt-4o-mini", "gemini:gemini-2.0-flash", "google:gemini-2.0-flash"} {
		provider, model, err := providerForModel(identifier)
		if err != nil {
			t.Errorf("providerForModel(%q) failed: %v", identifier, err)
			continue
		}
		if provider == nil || model == "" {
			t.Errorf("providerForModel(%q) returned %v %q", identifier, provider, model)
		}
	}

	if _, _, err := providerForModel("anthropic:claude"); err == nil {
		t.Error("expected error for unsupported provider")
	}
	if _, _, err := providerForModel("gpt-4o-mini"); err == nil {
		t.Error("expected error for missing provider prefix")
	}
}

const englishAnalysis = "This analysis describes the research in clear English prose so that language detection recognizes it without ambiguity."

func standardScript() map[string]string {
	return map[string]string{
		nodeDetectPaperType:  `{"paper_type": "standard", "reasoning": "Classic IMRaD structure with original experiments."}`,
		nodeExtractSections:  `{"introduction": {"start_line": 1, "end_line": 2}, "methods": {"start_line": 4, "end_line": 4}, "results": {"start_line": 5, "end_line": 5}, "discussion": {"start_line": null, "end_line": null}}`,
		nodeExtractTitle:     "Wave Simulation with Learned Kernels",
		nodeExtractAbstract:  "We present a learned kernel approach to wave simulation that improves accuracy over classical solvers.",
		nodeExtractConclusion: "The learned kernel approach consistently outperforms the classical baselines across every benchmark we evaluated.",
		nodeExtractBasicInfo: `{"authors": ["Min Su Park", "Jane Doe"], "year": "2024", "affiliations": ["Ocean Lab"], "journal": "Ocean Engineering"}`,
		nodeExtractKeywords:  `{"keywords": ["wave simulation", "learned kernels"]}`,
		nodeAnalyzeBackground:    englishAnalysis,
		nodeAnalyzePurpose:       englishAnalysis,
		nodeAnalyzeMethodologies: englishAnalysis,
		nodeAnalyzeResults:       englishAnalysis,
		nodeAnalyzeKeypoints:     englishAnalysis,
	}
}

func TestRunStandardPaperPipeline(t *testing.T) {
	settings := testSettings()

	a, err := New(settings,
		WithClientRegistry(scriptedRegistry(t, standardScript())),
		WithConverter(&fixedConverter{pages: []string{
			"Intro line one\nIntro line two",
			"\nMethods body\nResults body",
		}}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{
		`title: "Wave Simulation with Learned Kernels"`,
		"first_author: Min Su Park",
		"### Research Background",
		"### Key Contributions",
		englishAnalysis,
		"The learned kernel approach consistently outperforms",
		"  - wave_simulation",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

// countingRegistry is a scripted registry that also counts how many times
// each node's client is invoked.
func countingRegistry(t *testing.T, script map[string]string, counts map[string]int, mu *sync.Mutex) *client.Registry {
	t.Helper()
	registry, err := client.NewRegistry(func(nodeName string) (*client.Client, error) {
		return client.New(&scriptedProvider{respond: func(string) (string, error) {
			mu.Lock()
			counts[nodeName]++
			mu.Unlock()
			response, ok := script[nodeName]
			if !ok {
				return "", fmt.Errorf("no scripted response for node %q", nodeName)
			}
			return response, nil
		}}, client.WithModel("stub:model"))
	})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return registry
}

func TestRunStandardPipelineTruncatesSinglePass(t *testing.T) {
	const shortAnalysis = "This short analysis is written in clear English prose so that detection works."
	const longAnalysis = shortAnalysis + " It keeps going well past the configured limit with extra sentences about experiments and results."
	// Still over the limit after condensing; the run must not loop back to
	// another length check.
	const condensedAnalysis = "This condensed analysis is still written in English and still runs past the configured limit by a fair margin."

	settings := testSettings()
	settings.MaxAnalysisLength = 100

	script := standardScript()
	script[nodeAnalyzeBackground] = longAnalysis
	script[nodeAnalyzePurpose] = shortAnalysis
	script[nodeAnalyzeMethodologies] = shortAnalysis
	script[nodeAnalyzeResults] = shortAnalysis
	script[nodeAnalyzeKeypoints] = shortAnalysis
	script[nodeTruncateField] = condensedAnalysis

	var mu sync.Mutex
	counts := map[string]int{}

	a, err := New(settings,
		WithClientRegistry(countingRegistry(t, script, counts, &mu)),
		WithConverter(&fixedConverter{pages: []string{
			"Intro line one\nIntro line two",
			"\nMethods body\nResults body",
		}}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(report, condensedAnalysis) {
		t.Errorf("condensed background missing from report:\n%s", report)
	}
	if strings.Contains(report, longAnalysis) {
		t.Errorf("oversized background should have been replaced:\n%s", report)
	}
	if !strings.Contains(report, shortAnalysis) {
		t.Errorf("sibling analyses should be untouched:\n%s", report)
	}

	mu.Lock()
	truncateCalls := counts[nodeTruncateField]
	mu.Unlock()
	if truncateCalls != 1 {
		t.Errorf("expected exactly one truncation call, got %d", truncateCalls)
	}
}

func TestRunReviewPaperPipeline(t *testing.T) {
	settings := testSettings()
	settings.PaperType = config.PaperTypeReview

	script := map[string]string{
		nodeExtractDynamicSections: `{"sections": [
			{"name": "Open Challenges", "start_line": 1, "end_line": 2},
			{"name": "Agent Taxonomies", "start_line": 4, "end_line": 5}
		]}`,
		nodeExtractTitle:     "A Survey of Autonomous Agents",
		nodeExtractAbstract:  "This survey reviews the landscape of autonomous agent research and organizes it into taxonomies and challenges.",
		nodeExtractConclusion: "Autonomous agent research has matured quickly, yet evaluation methodology remains the central open problem today.",
		nodeExtractBasicInfo: `{"authors": ["Alice Smith"], "year": "2023", "affiliations": [], "journal": "ACM Computing Surveys"}`,
		nodeExtractKeywords:  `{"keywords": ["autonomous agents"]}`,
		nodeAnalyzeDynamicSection: englishAnalysis,
	}

	a, err := New(settings,
		WithClientRegistry(scriptedRegistry(t, script)),
		WithConverter(&fixedConverter{pages: []string{
			"Taxonomy line one\nTaxonomy line two",
			"\nChallenges line one\nChallenges line two",
		}}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{
		"### Agent Taxonomies",
		"### Open Challenges",
		"### Conclusion",
		"first_author: Alice Smith",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	// "Open Challenges" comes first in the paper, so it must come first in
	// the report even though it sorts after "Agent Taxonomies".
	if strings.Index(report, "### Open Challenges") > strings.Index(report, "### Agent Taxonomies") {
		t.Errorf("sections should follow document order:\n%s", report)
	}
}

func TestRunAbortsWhenConversionFails(t *testing.T) {
	a, err := New(testSettings(),
		WithClientRegistry(scriptedRegistry(t, nil)),
		WithConverter(&failingConverter{}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := a.Run(context.Background()); err == nil {
		t.Fatal("expected run to fail when conversion fails")
	}
}

type failingConverter struct{}

func (f *failingConverter) Convert(string) (*extract.Document, error) {
	return nil, fmt.Errorf("unreadable input")
}
