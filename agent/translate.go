package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/unicode/norm"

	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/core/client"
	"github.com/minsupark/paperlens/core/stategraph"
	"github.com/minsupark/paperlens/providers/observability"
)

// conclusionBatchKey routes the conclusion through the batched section
// translation of review papers without clashing with a real section name.
const conclusionBatchKey = "__conclusion__"

const translationBatchSize = 3

// translateAnalysis brings every analysis output into the target language.
// Fields already detected as target-language text are left untouched.
func (a *Agent) translateAnalysis(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	target := a.settings.TargetLanguage
	if target == "" {
		return nil, nil
	}
	languageName := a.settings.LanguageName()

	if state.GetString(keyPaperType) == config.PaperTypeReview {
		return a.translateDynamicSections(ctx, state, target, languageName)
	}
	return a.translateStandardAnalysis(ctx, state, target, languageName)
}

func (a *Agent) translateStandardAnalysis(ctx context.Context, state stategraph.State, target, languageName string) (stategraph.Update, error) {
	fields := append(append([]string{}, analysisFields...), keyConclusion)

	toTranslate := map[string]string{}
	var skipped []string
	for _, field := range fields {
		content := state.GetString(field)
		if content == "" {
			continue
		}
		if isTargetLanguage(content, target) {
			skipped = append(skipped, field)
			continue
		}
		toTranslate[field] = content
	}

	if len(skipped) > 0 {
		a.observer.Info(ctx, "fields already in target language",
			observability.Strings("fields", skipped),
		)
	}
	if len(toTranslate) == 0 {
		a.observer.Info(ctx, "nothing to translate")
		return nil, nil
	}

	c, err := a.clients.ForNode(nodeTranslateAnalysis)
	if err != nil {
		return nil, err
	}

	// All six fields present: one structured call keeps them aligned.
	if len(toTranslate) == len(fields) {
		prompt := fmt.Sprintf(`Translate the following academic paper analysis sections into %s.
Maintain the academic tone and technical terminology.

[Background]
%s

[Research Purpose]
%s

[Methodologies]
%s

[Results]
%s

[Key Points]
%s

[Conclusion]
%s`,
			languageName,
			toTranslate[keyBackground], toTranslate[keyResearchPurpose],
			toTranslate[keyMethodologies], toTranslate[keyResults],
			toTranslate[keyKeypoints], toTranslate[keyConclusion])

		result, err := client.InvokeAs[TranslatedAnalysis](ctx, c, prompt)
		if err != nil {
			return nil, err
		}

		a.observer.Info(ctx, "analysis translated", observability.String("language", languageName))

		return stategraph.Update{
			keyBackground:      result.Background,
			keyResearchPurpose: result.ResearchPurpose,
			keyMethodologies:   result.Methodologies,
			keyResults:         result.Results,
			keyKeypoints:       result.Keypoints,
			keyConclusion:      result.Conclusion,
		}, nil
	}

	translations, err := a.translateBatch(ctx, c, toTranslate, languageName)
	if err != nil {
		a.observer.Error(ctx, "partial translation failed", observability.Error(err))
		return nil, nil
	}

	update := stategraph.Update{}
	for field, value := range translations {
		update[field] = value
	}
	return update, nil
}

func (a *Agent) translateDynamicSections(ctx context.Context, state stategraph.State, target, languageName string) (stategraph.Update, error) {
	analyses := state.GetStringMap(keySectionAnalyses)
	conclusion := state.GetString(keyConclusion)

	toTranslate := map[string]string{}
	var skipped []string
	for _, name := range sortedKeys(analyses) {
		content := analyses[name]
		if content == "" {
			continue
		}
		if isTargetLanguage(content, target) {
			skipped = append(skipped, name)
			continue
		}
		toTranslate[name] = content
	}
	if conclusion != "" && !isTargetLanguage(conclusion, target) {
		toTranslate[conclusionBatchKey] = conclusion
	}

	if len(skipped) > 0 {
		a.observer.Info(ctx, "sections already in target language",
			observability.Strings("sections", skipped),
		)
	}
	if len(toTranslate) == 0 {
		a.observer.Info(ctx, "nothing to translate")
		return nil, nil
	}

	c, err := a.clients.ForNode(nodeTranslateAnalysis)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(toTranslate))
	for key := range toTranslate {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Batched translation: a failing batch is logged and dropped so the
	// remaining sections still arrive translated.
	all := map[string]string{}
	for start := 0; start < len(keys); start += translationBatchSize {
		end := start + translationBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		batch := map[string]string{}
		for _, key := range keys[start:end] {
			batch[key] = toTranslate[key]
		}

		translations, err := a.translateBatch(ctx, c, batch, languageName)
		if err != nil {
			a.observer.Error(ctx, "translation batch failed",
				observability.Strings("sections", keys[start:end]),
				observability.Error(err),
			)
			continue
		}
		for key, value := range translations {
			all[key] = value
		}
	}

	a.observer.Info(ctx, "sections translated", observability.Int("count", len(all)))

	translatedSections := map[string]string{}
	translatedConclusion := ""
	for key, value := range all {
		if key == conclusionBatchKey {
			translatedConclusion = value
			continue
		}
		translatedSections[key] = value
	}

	update := stategraph.Update{}
	if len(translatedSections) > 0 {
		update[keySectionAnalyses] = translatedSections
	}
	if translatedConclusion != "" {
		update[keyConclusion] = translatedConclusion
	}
	if len(update) == 0 {
		return nil, nil
	}
	return update, nil
}

// translateBatch translates a keyed set of texts in one structured call and
// maps the returned keys back to the originals.
func (a *Agent) translateBatch(ctx context.Context, c *client.Client, batch map[string]string, languageName string) (map[string]string, error) {
	keys := make([]string, 0, len(batch))
	for key := range batch {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sections strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&sections, "[%s]\n%s\n\n", key, batch[key])
	}

	prompt := fmt.Sprintf(`Translate the following academic paper section analyses into %s.
Maintain the academic tone and technical terminology.

You MUST translate ALL %d sections below.
For each section, return an item with:
- key: the EXACT section name as provided (e.g., "%s")
- value: the translated text in %s

Sections to translate:

%s`, languageName, len(keys), keys[0], languageName, strings.TrimSpace(sections.String()))

	result, err := client.InvokeAs[TranslationList](ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	translations := map[string]string{}
	for _, item := range result.Items {
		if matched, ok := matchKey(item.Key, keys); ok {
			translations[matched] = item.Value
			continue
		}
		a.observer.Warn(ctx, "translated key did not match any input, keeping as returned",
			observability.String("key", item.Key),
		)
		translations[item.Key] = item.Value
	}
	return translations, nil
}

// matchKey compares a returned key against the originals after NFKC
// normalization, which folds ligatures and width variants the model may
// introduce.
func matchKey(returned string, originals []string) (string, bool) {
	normalized := norm.NFKC.String(returned)
	for _, original := range originals {
		if norm.NFKC.String(original) == normalized {
			return original, true
		}
	}
	return "", false
}

// isTargetLanguage reports whether text already reads as the target
// language. Short texts are too ambiguous to classify and count as not
// translated.
func isTargetLanguage(text, target string) bool {
	detected := detectLanguage(text)
	if detected == "" {
		return false
	}
	return detected == target
}

func detectLanguage(text string) string {
	if len(strings.TrimSpace(text)) < 20 {
		return ""
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if strings.HasPrefix(code, "zh") {
		return "zh"
	}
	return code
}
