package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/core/client"
	"github.com/minsupark/paperlens/core/stategraph"
	"github.com/minsupark/paperlens/internal/utils"
	"github.com/minsupark/paperlens/providers/extract"
	"github.com/minsupark/paperlens/providers/observability"
)

// convertDocument turns the input file into page-split markdown. When an
// output directory is configured, the combined markdown is written next to
// the eventual report for inspection.
func (a *Agent) convertDocument(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	inputPath := state.GetString(keyInputPath)
	if inputPath == "" {
		return nil, fmt.Errorf("input path is not set")
	}

	converter := a.converter
	if converter == nil {
		selected, err := extract.ForPath(inputPath)
		if err != nil {
			return nil, err
		}
		converter = selected
	}

	doc, err := converter.Convert(inputPath)
	if err != nil {
		return nil, err
	}

	a.observer.Info(ctx, "document converted",
		observability.String("input", filepath.Base(inputPath)),
		observability.Int("pages", doc.PageCount()),
	)

	if outputPath := state.GetString(keyOutputPath); outputPath != "" {
		artifactPath := filepath.Join(outputPath, "converted_md.md")
		if err := extract.WriteCombined(doc, artifactPath); err != nil {
			a.observer.Warn(ctx, "failed to write converted markdown artifact",
				observability.Error(err),
			)
		}
	}

	return stategraph.Update{
		keyPages:     doc.Pages,
		keyPageCount: doc.PageCount(),
	}, nil
}

// detectPaperType classifies the paper as standard research or review. A
// configured paper type short-circuits the model call.
func (a *Agent) detectPaperType(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	if a.settings.PaperType != config.PaperTypeAuto {
		a.observer.Info(ctx, "using configured paper type",
			observability.String("paper_type", a.settings.PaperType),
		)
		return stategraph.Update{keyPaperType: a.settings.PaperType}, nil
	}

	c, err := a.clients.ForNode(nodeDetectPaperType)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analyze this academic paper and determine its type.

PAPER TYPES:
1. "standard" - Original research paper with typical structure:
   - Has clear Introduction, Methods/Methodology, Results, Discussion/Conclusion
   - Presents original experiments, simulations, or theoretical work
   - Reports new findings from the authors' own research

2. "review" - Review, survey, or overview paper:
   - Summarizes and synthesizes existing literature
   - May have sections organized by topics/themes rather than methodology
   - Examples: Literature review, Systematic review, Survey paper, Tutorial, Overview
   - Does NOT follow the standard Introduction-Methods-Results structure

Analyze the paper structure and content to classify it.

Paper content (first pages):
%s`, firstPages(state, 5))

	result, err := client.InvokeAs[PaperTypeResult](ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	paperType := strings.ToLower(result.PaperType)
	if paperType != config.PaperTypeStandard && paperType != config.PaperTypeReview {
		paperType = config.PaperTypeStandard
	}

	a.observer.Info(ctx, "paper type detected",
		observability.String("paper_type", paperType),
		observability.String("reasoning", observability.TruncateString(result.Reasoning, 100)),
	)

	return stategraph.Update{keyPaperType: paperType}, nil
}

// routePaperType selects the section extraction variant by paper type.
func (a *Agent) routePaperType(state stategraph.State) stategraph.RouteDecision {
	if state.GetString(keyPaperType) == config.PaperTypeReview {
		return stategraph.RouteTo(nodeExtractDynamicSections)
	}
	return stategraph.RouteTo(nodeExtractSections)
}

// extractSections asks the model for line ranges of the four fixed section
// categories and slices the text accordingly. Missing categories produce
// empty entries.
func (a *Agent) extractSections(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	c, err := a.clients.ForNode(nodeExtractSections)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(fullText(state), "\n")

	prompt := fmt.Sprintf(`Identify the EXACT line ranges for each major section category in this academic paper.

CRITICAL RULES:
- Line numbers are shown at the beginning of each line (e.g., "27|I. INTRODUCTION" means line 27)
- start_line: The EXACT line number where the FIRST relevant section header appears
- end_line: The line BEFORE the next category's section starts (NOT the next subsection within the same category)
- Multiple consecutive paper sections may belong to ONE category. Include ALL of them in the range.

SECTION CATEGORIES (each may contain MULTIPLE paper sections):

1. introduction:
   - Includes: Introduction, Background, Literature Review, Related Work, Problem Statement
   - Usually the first major section (I., 1., etc.)
   - Range: From first introduction-related header to just before methods-related content

2. methods:
   - Includes: Methods, Methodology, Approach, Theory, Governing Equations, Mathematical Model, Numerical Modeling, Simulation Setup, Experimental Setup, System Design, Implementation, Simulation Conditions
   - Often spans MULTIPLE numbered sections (e.g., II, III, or 2, 3)
   - Range: From first methods-related header to just before results-related content

3. results:
   - Includes: Results, Findings, Experiments, Evaluation, Analysis, Simulation Results, Performance, Validation
   - Range: From first results-related header to just before discussion/conclusion

4. discussion:
   - Includes: Discussion, Conclusion, Summary, Future Work, Limitations
   - Usually the final content section
   - Range: From first discussion/conclusion header to end of main content (before References/Acknowledgments)

If a category doesn't exist in the paper, leave start_line and end_line as null.

Paper content (with line numbers):
%s`, numberLines(lines))

	result, err := client.InvokeAs[SectionRanges](ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	sections := map[string]string{
		"introduction": sliceRange(lines, result.Introduction),
		"methods":      sliceRange(lines, result.Methods),
		"results":      sliceRange(lines, result.Results),
		"discussion":   sliceRange(lines, result.Discussion),
	}

	var found []string
	for name, text := range sections {
		if text != "" {
			found = append(found, name)
		}
	}
	a.observer.Info(ctx, "sections extracted", observability.Strings("found", found))

	return stategraph.Update{keyExtractedSections: sections}, nil
}

// extractDynamicSections detects the thematic sections of a review paper.
// Empty slices are dropped so the fan-out only covers real content.
func (a *Agent) extractDynamicSections(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	c, err := a.clients.ForNode(nodeExtractDynamicSections)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(fullText(state), "\n")

	prompt := fmt.Sprintf(`Identify ALL major content sections in this review/survey paper.

CRITICAL RULES:
- Line numbers are shown at the beginning of each line (e.g., "27|II. TYPES OF AGENTS" means line 27)
- Extract EVERY major section header with its exact name as written in the paper
- Include numbered sections (e.g., "II. Background", "3. Classification Methods")
- start_line: The line number where the section header appears
- end_line: The line BEFORE the next section starts

EXCLUDE these sections (do NOT include):
- Abstract
- References/Bibliography
- Acknowledgments
- Appendix

INCLUDE sections like:
- Background, Literature Review, Related Work
- Any thematic/topic sections (e.g., "Types of AI Agents", "Applications in Healthcare")
- Methodology sections if present
- Discussion sections in the middle of the paper
- Any other content sections

Paper content (with line numbers):
%s`, numberLines(lines))

	result, err := client.InvokeAs[DynamicSectionRanges](ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	sections := map[string]string{}
	var order []string
	for _, section := range result.Sections {
		if _, exists := sections[section.Name]; exists {
			continue
		}
		text := sliceLines(lines, section.StartLine, section.EndLine)
		if text != "" {
			sections[section.Name] = text
			order = append(order, section.Name)
		}
	}

	a.observer.Info(ctx, "dynamic sections extracted", observability.Int("sections", len(sections)))

	return stategraph.Update{keyDynamicSections: sections, keySectionOrder: order}, nil
}

func numberLines(lines []string) string {
	var builder strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&builder, "%d|%s\n", i+1, line)
	}
	return strings.TrimSuffix(builder.String(), "\n")
}

func sliceRange(lines []string, r SectionRange) string {
	start := utils.Deref(r.StartLine, 0)
	end := utils.Deref(r.EndLine, 0)
	if start == 0 || end == 0 {
		return ""
	}
	return sliceLines(lines, start, end)
}

// sliceLines extracts an inclusive 1-indexed line range, clamped to the
// text.
func sliceLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[start-1:end], "\n"))
}
