package agent

import (
	"testing"

	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/core/stategraph"
)

func TestDetectLanguage(t *testing.T) {
	if got := detectLanguage("short"); got != "" {
		t.Errorf("short text should be undetectable, got %q", got)
	}

	english := "This sentence is written in plain English and is comfortably long enough for detection."
	if got := detectLanguage(english); got != "en" {
		t.Errorf("expected en, got %q", got)
	}

	korean := "이 문장은 한국어로 작성되었으며 언어 감지에 충분할 만큼 깁니다. 학술 논문 요약에 사용됩니다."
	if got := detectLanguage(korean); got != "ko" {
		t.Errorf("expected ko, got %q", got)
	}
}

func TestIsTargetLanguage(t *testing.T) {
	english := "This sentence is written in plain English and is comfortably long enough for detection."

	if !isTargetLanguage(english, "en") {
		t.Error("English text should match target en")
	}
	if isTargetLanguage(english, "ko") {
		t.Error("English text should not match target ko")
	}
	if isTargetLanguage("too short", "en") {
		t.Error("undetectable text should never count as translated")
	}
}

// Keys returned by the model may carry ligatures or width variants; NFKC
// folding must still match them to the originals.
func TestMatchKey(t *testing.T) {
	originals := []string{"Classiﬁcation Methods", "Background"}

	matched, ok := matchKey("Classification Methods", originals)
	if !ok || matched != "Classiﬁcation Methods" {
		t.Errorf("ligature key not matched: %q %v", matched, ok)
	}

	if _, ok := matchKey("Unknown Section", originals); ok {
		t.Error("unrelated key should not match")
	}
}

func TestTranslateStandardAnalysisSkipsTargetLanguage(t *testing.T) {
	a := testAgent(t)

	english := "This analysis is already written in English and therefore requires no further translation at all."
	update, err := a.translateAnalysis(t.Context(), stategraph.State{
		keyPaperType:  config.PaperTypeStandard,
		keyBackground: english,
		keyConclusion: english,
	})
	if err != nil {
		t.Fatalf("translateAnalysis failed: %v", err)
	}
	if update != nil {
		t.Errorf("expected no update when everything is in the target language, got %v", update)
	}
}

func TestTranslateStandardAnalysisFullStructuredCall(t *testing.T) {
	script := map[string]string{
		nodeTranslateAnalysis: `{
			"background": "배경",
			"research_purpose": "목적",
			"methodologies": "방법론",
			"results": "결과",
			"keypoints": "핵심",
			"conclusion": "결론"
		}`,
	}

	settings := testSettings()
	settings.TargetLanguage = "ko"
	a, err := New(settings, WithClientRegistry(scriptedRegistry(t, script)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	english := "This analysis is written in English prose that is long enough for reliable language detection."
	update, err := a.translateAnalysis(t.Context(), stategraph.State{
		keyPaperType:       config.PaperTypeStandard,
		keyBackground:      english,
		keyResearchPurpose: english,
		keyMethodologies:   english,
		keyResults:         english,
		keyKeypoints:       english,
		keyConclusion:      english,
	})
	if err != nil {
		t.Fatalf("translateAnalysis failed: %v", err)
	}

	if update[keyBackground] != "배경" || update[keyConclusion] != "결론" {
		t.Errorf("translated fields not applied: %v", update)
	}
}

func TestTranslateDynamicSectionsBatchesAndMapsConclusion(t *testing.T) {
	script := map[string]string{
		nodeTranslateAnalysis: `{"items": [
			{"key": "Background", "value": "배경 요약"},
			{"key": "Challenges", "value": "도전 과제 요약"},
			{"key": "__conclusion__", "value": "결론 번역"}
		]}`,
	}

	settings := testSettings()
	settings.TargetLanguage = "ko"
	a, err := New(settings, WithClientRegistry(scriptedRegistry(t, script)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	english := "This section analysis is written in English prose that is long enough for reliable detection."
	update, err := a.translateAnalysis(t.Context(), stategraph.State{
		keyPaperType: config.PaperTypeReview,
		keySectionAnalyses: map[string]string{
			"Background": english,
			"Challenges": english,
		},
		keyConclusion: english,
	})
	if err != nil {
		t.Fatalf("translateAnalysis failed: %v", err)
	}

	sections, ok := update[keySectionAnalyses].(map[string]string)
	if !ok {
		t.Fatalf("unexpected section analyses type: %T", update[keySectionAnalyses])
	}
	if sections["Background"] != "배경 요약" || sections["Challenges"] != "도전 과제 요약" {
		t.Errorf("sections not translated: %v", sections)
	}
	if update[keyConclusion] != "결론 번역" {
		t.Errorf("conclusion not mapped from batch key: %v", update[keyConclusion])
	}
}
