package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/minsupark/paperlens/core/client"
	"github.com/minsupark/paperlens/core/stategraph"
	"github.com/minsupark/paperlens/providers/observability"
)

func (a *Agent) extractKeywords(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	c, err := a.clients.ForNode(nodeExtractKeywords)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Extract or identify the keywords from this academic paper.
If explicit keywords are listed, extract them. Otherwise, identify 5-10 key terms that best describe this paper.

Abstract:
%s

Paper content (first pages):
%s`, state.GetString(keyAbstract), firstPages(state, 3))

	result, err := client.InvokeAs[KeywordsResult](ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	a.observer.Info(ctx, "keywords extracted", observability.Int("count", len(result.Keywords)))

	return stategraph.Update{keyKeywords: result.Keywords}, nil
}

// loadKeywordFile reads the reference keyword file. Any problem with the
// file degrades to empty references instead of failing the run.
func (a *Agent) loadKeywordFile(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	keywords, synonyms := a.readKeywordFile(ctx)

	a.observer.Info(ctx, "keyword file loaded",
		observability.Int("keywords", len(keywords)),
		observability.Int("synonym_mappings", len(synonyms)),
	)

	return stategraph.Update{
		keyOriginalKeywords: keywords,
		keyKeywordSynonyms:  synonyms,
	}, nil
}

// readKeywordFile parses the JSON keyword file, a map of keyword to synonym
// list. String values are treated as single-synonym lists.
func (a *Agent) readKeywordFile(ctx context.Context) ([]string, map[string][]string) {
	path := a.settings.KeywordFilePath
	if path == "" {
		return nil, map[string][]string{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.observer.Warn(ctx, "keyword file not readable",
			observability.String("path", path),
			observability.Error(err),
		)
		return nil, map[string][]string{}
	}

	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		a.observer.Error(ctx, "keyword file is not valid JSON",
			observability.String("path", path),
			observability.Error(err),
		)
		return nil, map[string][]string{}
	}

	keywords := make([]string, 0, len(raw))
	synonyms := make(map[string][]string, len(raw))
	for keyword, value := range raw {
		keywords = append(keywords, keyword)
		switch typed := value.(type) {
		case []any:
			list := make([]string, 0, len(typed))
			for _, item := range typed {
				if text, ok := item.(string); ok {
					list = append(list, text)
				}
			}
			synonyms[keyword] = list
		case string:
			synonyms[keyword] = []string{typed}
		default:
			synonyms[keyword] = []string{}
		}
	}

	return keywords, synonyms
}

// reExtractKeywords expands the keyword list using the reference keywords
// for context. Skipped entirely when there are no references.
func (a *Agent) reExtractKeywords(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	extracted := state.GetStringSlice(keyKeywords)
	original := state.GetStringSlice(keyOriginalKeywords)

	if len(original) == 0 {
		a.observer.Info(ctx, "no reference keywords, skipping re-extraction")
		return stategraph.Update{keyKeywords: extracted}, nil
	}

	c, err := a.clients.ForNode(nodeReExtractKeywords)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Based on the following keywords, title, and abstract, extract additional relevant keywords from the paper.

Existing keywords (extracted from paper):
%s

Reference keywords (from keyword file for context):
%s

Title:
%s

Abstract:
%s

Extract additional relevant keywords that are related to the existing keywords and appear in the title or abstract.
Return only keywords that are actually mentioned in the title or abstract.`,
		joinOrNone(extracted), joinOrNone(original),
		state.GetString(keyTitle), state.GetString(keyAbstract))

	result, err := client.InvokeAs[KeywordsResult](ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	merged := mergeNewKeywords(extracted, result.Keywords)

	a.observer.Info(ctx, "keywords re-extracted",
		observability.Int("existing", len(extracted)),
		observability.Int("total", len(merged)),
	)

	return stategraph.Update{keyKeywords: merged}, nil
}

// addSynonymsToKeywords appends known synonyms of the current keywords.
func (a *Agent) addSynonymsToKeywords(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	keywords := state.GetStringSlice(keyKeywords)
	synonyms := getSynonyms(state)

	final := append([]string{}, keywords...)
	seen := map[string]bool{}
	for _, keyword := range final {
		seen[keyword] = true
	}

	for _, keyword := range keywords {
		for _, synonym := range synonyms[keyword] {
			if !seen[synonym] {
				seen[synonym] = true
				final = append(final, synonym)
			}
		}
	}

	a.observer.Info(ctx, "synonyms added",
		observability.Int("before", len(keywords)),
		observability.Int("after", len(final)),
	)

	return stategraph.Update{keyKeywords: final}, nil
}

// appendKeywordFile writes keywords that are not yet in the reference file
// back to it. All failures degrade to a log entry; the file is an optional
// side channel, not pipeline state.
func (a *Agent) appendKeywordFile(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	keywords := state.GetStringSlice(keyKeywords)
	if len(keywords) == 0 {
		return nil, nil
	}

	original := map[string]bool{}
	for _, keyword := range state.GetStringSlice(keyOriginalKeywords) {
		original[keyword] = true
	}

	var fresh []string
	for _, keyword := range keywords {
		if !original[keyword] {
			fresh = append(fresh, keyword)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	path := a.settings.KeywordFilePath
	if path == "" {
		a.observer.Warn(ctx, "keyword file path not configured, new keywords not persisted")
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.observer.Error(ctx, "failed to read keyword file",
			observability.String("path", path),
			observability.Error(err),
		)
		return nil, nil
	}

	entries := map[string]any{}
	if err := json.Unmarshal(data, &entries); err != nil {
		a.observer.Error(ctx, "failed to parse keyword file",
			observability.String("path", path),
			observability.Error(err),
		)
		return nil, nil
	}

	added := 0
	for _, keyword := range fresh {
		cleaned := cleanKeyword(keyword)
		if cleaned == "" {
			continue
		}
		if _, exists := entries[cleaned]; !exists {
			entries[cleaned] = []string{}
			added++
		}
	}

	if added == 0 {
		return nil, nil
	}

	encoded, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, nil
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		a.observer.Error(ctx, "failed to write keyword file",
			observability.String("path", path),
			observability.Error(err),
		)
		return nil, nil
	}

	a.observer.Info(ctx, "new keywords persisted", observability.Int("added", added))
	return nil, nil
}

var bracketedText = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
var repeatedSpace = regexp.MustCompile(`\s+`)

// cleanKeyword strips bracketed qualifiers and collapses whitespace before a
// keyword is persisted.
func cleanKeyword(keyword string) string {
	cleaned := bracketedText.ReplaceAllString(keyword, "")
	return strings.TrimSpace(repeatedSpace.ReplaceAllString(cleaned, " "))
}

// mergeNewKeywords appends entries of extra that are not already present,
// preserving order.
func mergeNewKeywords(existing, extra []string) []string {
	seen := map[string]bool{}
	for _, keyword := range existing {
		seen[keyword] = true
	}

	merged := append([]string{}, existing...)
	for _, keyword := range extra {
		if !seen[keyword] {
			seen[keyword] = true
			merged = append(merged, keyword)
		}
	}
	return merged
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}
