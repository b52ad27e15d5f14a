package agent

import (
	"context"
	"fmt"

	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/core/client"
	"github.com/minsupark/paperlens/core/stategraph"
	"github.com/minsupark/paperlens/providers/ai"
	"github.com/minsupark/paperlens/providers/ai/gemini"
	"github.com/minsupark/paperlens/providers/ai/openai"
	"github.com/minsupark/paperlens/providers/extract"
	"github.com/minsupark/paperlens/providers/observability"
)

// Pipeline node names. Settings may bind a model per node under these names.
const (
	nodeConvertDocument        = "convert_document"
	nodeDetectPaperType        = "detect_paper_type"
	nodeExtractSections        = "extract_sections"
	nodeExtractDynamicSections = "extract_dynamic_sections"
	nodeExtractTitle           = "extract_title"
	nodeExtractAbstract        = "extract_abstract"
	nodeExtractConclusion      = "extract_conclusion"
	nodeExtractBasicInfo       = "extract_basic_info"
	nodeExtractKeywords        = "extract_keywords"
	nodeLoadKeywordFile        = "load_keyword_file"
	nodeReExtractKeywords      = "re_extract_keywords"
	nodeAddSynonyms            = "add_synonyms_to_keywords"
	nodeAppendKeywordFile      = "add_new_keywords_to_file"
	nodeSyncExtraction         = "sync_extraction"
	nodeAnalyzeBackground      = "analyze_background"
	nodeAnalyzePurpose         = "analyze_research_purpose"
	nodeAnalyzeMethodologies   = "analyze_methodologies"
	nodeAnalyzeResults         = "analyze_results"
	nodeAnalyzeKeypoints       = "analyze_keypoints"
	nodeAnalyzeDynamicSection  = "analyze_dynamic_section"
	nodeCheckAnalysisLength    = "check_analysis_length"
	nodeTruncateField          = "truncate_single_field"
	nodeTranslateAnalysis      = "translate_analysis"
	nodeFinalSummarize         = "final_summarize"
)

var standardAnalyzeNodes = []string{
	nodeAnalyzeBackground,
	nodeAnalyzePurpose,
	nodeAnalyzeMethodologies,
	nodeAnalyzeResults,
	nodeAnalyzeKeypoints,
}

// Agent wires the paper summarization pipeline: document conversion,
// type-aware section extraction, parallel per-aspect analysis, length
// control, translation and report generation.
type Agent struct {
	settings  *config.Settings
	clients   *client.Registry
	observer  observability.Logger
	converter extract.Converter
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithClientRegistry replaces the default per-node client registry, mainly
// for tests that stub model calls.
func WithClientRegistry(registry *client.Registry) Option {
	return func(a *Agent) { a.clients = registry }
}

// WithObserver sets the logger for pipeline and engine events.
func WithObserver(observer observability.Logger) Option {
	return func(a *Agent) { a.observer = observer }
}

// WithConverter overrides the input converter selected by file extension.
func WithConverter(converter extract.Converter) Option {
	return func(a *Agent) { a.converter = converter }
}

// New creates an Agent from validated settings.
func New(settings *config.Settings, opts ...Option) (*Agent, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}

	a := &Agent{
		settings: settings,
		observer: observability.NoopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.clients == nil {
		registry, err := client.NewRegistry(a.clientFactory())
		if err != nil {
			return nil, err
		}
		a.clients = registry
	}

	return a, nil
}

// clientFactory builds a chat client for a pipeline node from the model
// configured for it.
func (a *Agent) clientFactory() client.Factory {
	return func(nodeName string) (*client.Client, error) {
		identifier := a.settings.ModelForNode(nodeName)
		provider, model, err := providerForModel(identifier)
		if err != nil {
			return nil, err
		}
		return client.New(provider,
			client.WithModel(model),
			client.WithObserver(a.observer),
		)
	}
}

func providerForModel(identifier string) (ai.Provider, string, error) {
	providerName, model, err := config.SplitModel(identifier)
	if err != nil {
		return nil, "", err
	}

	switch providerName {
	case "openai":
		return openai.New(), model, nil
	case "gemini", "google":
		return gemini.New(), model, nil
	default:
		return nil, "", fmt.Errorf("unsupported model provider %q", providerName)
	}
}

// BuildGraph assembles the pipeline graph.
func (a *Agent) BuildGraph() (*stategraph.Graph, error) {
	builder := stategraph.NewBuilder(stategraph.WithObserver(a.observer)).
		AddNode(nodeConvertDocument, a.convertDocument).
		AddNode(nodeDetectPaperType, a.detectPaperType).
		AddNode(nodeExtractSections, a.extractSections).
		AddNode(nodeExtractDynamicSections, a.extractDynamicSections).
		AddNode(nodeExtractTitle, a.extractTitle).
		AddNode(nodeExtractAbstract, a.extractAbstract).
		AddNode(nodeExtractConclusion, a.extractConclusion).
		AddNode(nodeExtractBasicInfo, a.extractBasicInfo).
		AddNode(nodeExtractKeywords, a.extractKeywords).
		AddNode(nodeLoadKeywordFile, a.loadKeywordFile).
		AddNode(nodeReExtractKeywords, a.reExtractKeywords).
		AddNode(nodeAddSynonyms, a.addSynonymsToKeywords).
		AddNode(nodeAppendKeywordFile, a.appendKeywordFile).
		AddNode(nodeSyncExtraction, a.syncExtraction).
		AddNode(nodeAnalyzeBackground, a.analyzeBackground).
		AddNode(nodeAnalyzePurpose, a.analyzeResearchPurpose).
		AddNode(nodeAnalyzeMethodologies, a.analyzeMethodologies).
		AddNode(nodeAnalyzeResults, a.analyzeResults).
		AddNode(nodeAnalyzeKeypoints, a.analyzeKeypoints).
		AddNode(nodeAnalyzeDynamicSection, a.analyzeDynamicSection).
		AddNode(nodeCheckAnalysisLength, a.checkAnalysisLength).
		AddNode(nodeTruncateField, a.truncateSingleField).
		AddNode(nodeTranslateAnalysis, a.translateAnalysis).
		AddNode(nodeFinalSummarize, a.finalSummarize).
		RegisterReducer(keySectionAnalyses, stategraph.MergeStringMaps)

	builder.AddEdge(stategraph.Start, nodeConvertDocument).
		AddEdge(nodeConvertDocument, nodeDetectPaperType).
		AddConditionalEdge(nodeDetectPaperType, a.routePaperType,
			[]string{nodeExtractSections, nodeExtractDynamicSections}, nodeExtractSections)

	// Both section extraction variants fan out to the same field
	// extractors.
	for _, sectionNode := range []string{nodeExtractSections, nodeExtractDynamicSections} {
		builder.AddEdge(sectionNode, nodeExtractTitle).
			AddEdge(sectionNode, nodeExtractAbstract).
			AddEdge(sectionNode, nodeExtractConclusion).
			AddEdge(sectionNode, nodeExtractBasicInfo)
	}

	builder.AddEdge(nodeExtractTitle, nodeExtractKeywords).
		AddEdge(nodeExtractAbstract, nodeExtractKeywords).
		AddEdge(nodeExtractKeywords, nodeLoadKeywordFile).
		AddEdge(nodeLoadKeywordFile, nodeReExtractKeywords).
		AddEdge(nodeReExtractKeywords, nodeAddSynonyms).
		AddEdge(nodeAddSynonyms, nodeAppendKeywordFile).
		AddEdge(nodeAppendKeywordFile, nodeSyncExtraction).
		AddEdge(nodeExtractConclusion, stategraph.End).
		AddEdge(nodeExtractBasicInfo, stategraph.End)

	analysisTargets := append(append([]string{}, standardAnalyzeNodes...),
		nodeAnalyzeDynamicSection, nodeCheckAnalysisLength)
	builder.AddConditionalEdge(nodeSyncExtraction, a.routeToAnalysis,
		analysisTargets, nodeCheckAnalysisLength)

	for _, analyzeNode := range standardAnalyzeNodes {
		builder.AddEdge(analyzeNode, nodeCheckAnalysisLength)
	}
	builder.AddEdge(nodeAnalyzeDynamicSection, nodeCheckAnalysisLength)

	builder.AddConditionalEdge(nodeCheckAnalysisLength, a.routeTruncate,
		[]string{nodeTruncateField, nodeTranslateAnalysis}, nodeTranslateAnalysis)

	builder.AddEdge(nodeTruncateField, nodeTranslateAnalysis).
		AddEdge(nodeTranslateAnalysis, nodeFinalSummarize).
		AddEdge(nodeFinalSummarize, stategraph.End)

	return builder.Build()
}

// Run executes the pipeline on the configured input and returns the final
// report.
func (a *Agent) Run(ctx context.Context) (string, error) {
	graph, err := a.BuildGraph()
	if err != nil {
		return "", err
	}

	final, err := graph.Run(ctx, stategraph.State{
		keyInputPath:  a.settings.InputPath,
		keyOutputPath: a.settings.OutputPath,
	})
	if err != nil {
		return "", err
	}

	return final.GetString(keyFinalReport), nil
}

// syncExtraction is a join point: the keyword chain and the parallel field
// extractors must all be committed before analysis routing runs.
func (a *Agent) syncExtraction(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	a.observer.Debug(ctx, "extraction phase synchronized")
	return nil, nil
}
