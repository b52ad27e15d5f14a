package agent

// Structured output shapes requested from the model. Field descriptions feed
// the generated JSON schemas.

// BasicInfo holds bibliographic details extracted from the first pages.
type BasicInfo struct {
	Authors      []string `json:"authors" description:"List of author names"`
	Year         string   `json:"year" description:"Publication year, empty if unknown"`
	Affiliations []string `json:"affiliations" description:"List of author affiliations or institutions"`
	Journal      string   `json:"journal" description:"Journal or conference name, empty if unknown"`
}

// KeywordsResult is the keyword list returned by extraction prompts.
type KeywordsResult struct {
	Keywords []string `json:"keywords" description:"List of keywords describing the paper"`
}

// PaperTypeResult classifies the paper as standard research or review.
type PaperTypeResult struct {
	PaperType string `json:"paper_type" description:"Detected paper type" enum:"standard,review"`
	Reasoning string `json:"reasoning" description:"Brief explanation for the classification"`
}

// SectionRange is a 1-indexed inclusive line range. Nil bounds mean the
// section was not found.
type SectionRange struct {
	StartLine *int `json:"start_line" description:"Start line number, 1-indexed inclusive, null if the section is absent"`
	EndLine   *int `json:"end_line" description:"End line number, 1-indexed inclusive, null if the section is absent"`
}

// SectionRanges maps the four fixed section categories of a standard paper
// to their line ranges.
type SectionRanges struct {
	Introduction SectionRange `json:"introduction" description:"Introduction, background and related work range"`
	Methods      SectionRange `json:"methods" description:"Methods and methodology range"`
	Results      SectionRange `json:"results" description:"Results, experiments and evaluation range"`
	Discussion   SectionRange `json:"discussion" description:"Discussion, conclusion and future work range"`
}

// DynamicSection names one thematic section of a review paper with its line
// range.
type DynamicSection struct {
	Name      string `json:"name" description:"Section name exactly as written in the paper"`
	StartLine int    `json:"start_line" description:"Start line number, 1-indexed inclusive"`
	EndLine   int    `json:"end_line" description:"End line number, 1-indexed inclusive"`
}

// DynamicSectionRanges lists every detected content section of a review
// paper.
type DynamicSectionRanges struct {
	Sections []DynamicSection `json:"sections" description:"All detected content sections"`
}

// TranslatedAnalysis carries the full standard analysis translated in one
// call.
type TranslatedAnalysis struct {
	Background      string `json:"background" description:"Translated research background analysis"`
	ResearchPurpose string `json:"research_purpose" description:"Translated research purpose analysis"`
	Methodologies   string `json:"methodologies" description:"Translated methodology analysis"`
	Results         string `json:"results" description:"Translated results analysis"`
	Keypoints       string `json:"keypoints" description:"Translated key contributions"`
	Conclusion      string `json:"conclusion" description:"Translated conclusion"`
}

// TranslationItem pairs an input key with its translated text.
type TranslationItem struct {
	Key   string `json:"key" description:"Section or field name exactly as provided"`
	Value string `json:"value" description:"Translated text"`
}

// TranslationList is the batched translation response.
type TranslationList struct {
	Items []TranslationItem `json:"items" description:"One item per translated section"`
}
