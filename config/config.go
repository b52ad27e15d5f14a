package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the settings file omits a field.
const (
	DefaultTargetLanguage    = "ko"
	DefaultMaxAnalysisLength = 500
	DefaultPaperType         = PaperTypeAuto
)

// Paper type selection. Auto defers classification to the pipeline.
const (
	PaperTypeAuto     = "auto"
	PaperTypeStandard = "standard"
	PaperTypeReview   = "review"
)

// SupportedLanguages maps language codes accepted in settings to display
// names used in prompts.
var SupportedLanguages = map[string]string{
	"ko": "Korean",
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
}

// LLMSettings selects models per pipeline node. DefaultModel applies to any
// node without an explicit entry. Models use the "provider:model" form,
// e.g. "openai:gpt-4o-mini" or "gemini:gemini-2.0-flash".
type LLMSettings struct {
	DefaultModel string            `yaml:"default_model"`
	Nodes        map[string]string `yaml:"nodes"`
}

// Settings is the full configuration of a pipeline run.
type Settings struct {
	InputPath         string      `yaml:"input_path"`
	OutputPath        string      `yaml:"output_path"`
	TargetLanguage    string      `yaml:"target_language"`
	MaxAnalysisLength int         `yaml:"max_analysis_length"`
	PaperType         string      `yaml:"paper_type"`
	KeywordFilePath   string      `yaml:"keyword_file_path"`
	LLM               LLMSettings `yaml:"llm"`
}

// ValidationError reports a single invalid settings field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid setting %q: %s", e.Field, e.Reason)
}

// Load reads settings from a YAML file, fills defaults and validates the
// result. A .env file next to the working directory is loaded first when
// present so model API keys can live outside the settings file.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := &Settings{}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	settings.applyDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

func (s *Settings) applyDefaults() {
	if s.TargetLanguage == "" {
		s.TargetLanguage = DefaultTargetLanguage
	}
	if s.MaxAnalysisLength == 0 {
		s.MaxAnalysisLength = DefaultMaxAnalysisLength
	}
	if s.PaperType == "" {
		s.PaperType = DefaultPaperType
	}

	s.InputPath = expandHome(s.InputPath)
	s.OutputPath = expandHome(s.OutputPath)
	s.KeywordFilePath = expandHome(s.KeywordFilePath)
}

// Validate checks field values and model identifier formats.
func (s *Settings) Validate() error {
	if _, ok := SupportedLanguages[s.TargetLanguage]; !ok {
		return &ValidationError{Field: "target_language", Reason: fmt.Sprintf("unsupported language %q", s.TargetLanguage)}
	}

	switch s.PaperType {
	case PaperTypeAuto, PaperTypeStandard, PaperTypeReview:
	default:
		return &ValidationError{Field: "paper_type", Reason: fmt.Sprintf("must be auto, standard or review, got %q", s.PaperType)}
	}

	if s.MaxAnalysisLength < 0 {
		return &ValidationError{Field: "max_analysis_length", Reason: "must not be negative"}
	}

	if s.LLM.DefaultModel == "" {
		return &ValidationError{Field: "llm.default_model", Reason: "is required"}
	}
	if _, _, err := SplitModel(s.LLM.DefaultModel); err != nil {
		return &ValidationError{Field: "llm.default_model", Reason: err.Error()}
	}
	for nodeName, model := range s.LLM.Nodes {
		if _, _, err := SplitModel(model); err != nil {
			return &ValidationError{Field: "llm.nodes." + nodeName, Reason: err.Error()}
		}
	}

	return nil
}

// ModelForNode returns the model identifier configured for a pipeline node,
// falling back to the default model.
func (s *Settings) ModelForNode(nodeName string) string {
	if model, ok := s.LLM.Nodes[nodeName]; ok && model != "" {
		return model
	}
	return s.LLM.DefaultModel
}

// LanguageName returns the display name of the target language for use in
// prompts.
func (s *Settings) LanguageName() string {
	return SupportedLanguages[s.TargetLanguage]
}

// SplitModel splits a "provider:model" identifier into its parts.
func SplitModel(identifier string) (provider, model string, err error) {
	provider, model, found := strings.Cut(identifier, ":")
	if !found || provider == "" || model == "" {
		return "", "", fmt.Errorf("model %q must use the provider:model form", identifier)
	}
	return provider, model, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
