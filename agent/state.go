package agent

import (
	"sort"
	"strings"

	"github.com/minsupark/paperlens/core/stategraph"
)

// State keys shared across pipeline nodes.
const (
	keyInputPath  = "input_path"
	keyOutputPath = "output_path"

	keyPages     = "pages"
	keyPageCount = "page_count"

	keyPaperType         = "paper_type"
	keyExtractedSections = "extracted_sections"
	keyDynamicSections   = "dynamic_sections"
	keySectionOrder      = "section_order"

	keyTitle            = "title"
	keyAbstract         = "abstract"
	keyConclusion       = "conclusion"
	keyBasicInfo        = "basic_info"
	keyKeywords         = "keywords"
	keyOriginalKeywords = "original_keywords"
	keyKeywordSynonyms  = "keyword_synonyms"

	keyBackground      = "background"
	keyResearchPurpose = "research_purpose"
	keyMethodologies   = "methodologies"
	keyResults         = "results"
	keyKeypoints       = "keypoints"

	keySectionAnalyses       = "section_analyses"
	keyCurrentSectionName    = "current_section_name"
	keyCurrentSectionContent = "current_section_content"

	keyExceededFields  = "exceeded_fields"
	keyTruncateField   = "truncate_field"
	keyTruncateContent = "truncate_content"

	keyFinalReport = "final_report"
)

// analysisFields are the per-aspect outputs of a standard paper analysis, in
// report order. Conclusion joins them for translation only.
var analysisFields = []string{
	keyBackground,
	keyResearchPurpose,
	keyMethodologies,
	keyResults,
	keyKeypoints,
}

// sectionFieldPrefix marks exceeded-field entries that refer to a dynamic
// section analysis rather than a fixed aspect field.
const sectionFieldPrefix = "section:"

func fullText(state stategraph.State) string {
	return strings.Join(state.GetStringSlice(keyPages), "\n\n")
}

func firstPages(state stategraph.State, n int) string {
	pages := state.GetStringSlice(keyPages)
	if n > len(pages) {
		n = len(pages)
	}
	return strings.Join(pages[:n], "\n\n")
}

func getSynonyms(state stategraph.State) map[string][]string {
	switch value := state[keyKeywordSynonyms].(type) {
	case map[string][]string:
		return value
	}
	return nil
}

func getBasicInfo(state stategraph.State) *BasicInfo {
	info, _ := state[keyBasicInfo].(*BasicInfo)
	return info
}

// sortedKeys keeps map-driven fan-outs deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
