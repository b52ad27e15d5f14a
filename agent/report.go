package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/core/stategraph"
	"github.com/minsupark/paperlens/providers/observability"
)

// finalSummarize assembles the report, writes it when an output location is
// configured, and renames the source PDF to match the report.
func (a *Agent) finalSummarize(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	info := getBasicInfo(state)

	firstAuthor := "Unknown"
	year := "Unknown"
	if info != nil {
		if len(info.Authors) > 0 {
			firstAuthor = info.Authors[0]
		}
		if info.Year != "" {
			year = info.Year
		}
	}
	baseName := safeAuthorName(firstAuthor) + year

	outputPath := state.GetString(keyOutputPath)
	inputPath := state.GetString(keyInputPath)

	reportFile := ""
	pdfName := baseName
	renamedPDF := ""

	if outputPath != "" {
		if stat, err := os.Stat(outputPath); err == nil && stat.IsDir() {
			reportFile = uniquePath(outputPath, baseName, ".md")

			if strings.EqualFold(filepath.Ext(inputPath), ".pdf") {
				if _, err := os.Stat(inputPath); err == nil {
					renamedPDF = uniquePDFPath(inputPath, baseName)
					pdfName = strings.TrimSuffix(filepath.Base(renamedPDF), ".pdf")
				}
			}
		} else {
			reportFile = outputPath
		}
	}

	frontmatter := renderFrontmatter(
		state.GetString(keyTitle),
		info,
		state.GetStringSlice(keyKeywords),
		pdfName,
	)

	var report string
	if state.GetString(keyPaperType) == config.PaperTypeReview {
		report = renderReviewReport(state, frontmatter)
	} else {
		report = renderStandardReport(state, frontmatter)
	}

	if reportFile != "" {
		if err := os.MkdirAll(filepath.Dir(reportFile), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
		if err := os.WriteFile(reportFile, []byte(report), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
		a.observer.Info(ctx, "report written", observability.String("path", reportFile))

		if renamedPDF != "" && renamedPDF != inputPath {
			if err := os.Rename(inputPath, renamedPDF); err != nil {
				a.observer.Warn(ctx, "failed to rename source PDF",
					observability.String("target", renamedPDF),
					observability.Error(err),
				)
			} else {
				a.observer.Info(ctx, "source PDF renamed", observability.String("path", renamedPDF))
			}
		}
	}

	return stategraph.Update{keyFinalReport: report}, nil
}

// renderFrontmatter produces the YAML frontmatter used for vault indexing.
// Keywords become tags after sanitization.
func renderFrontmatter(title string, info *BasicInfo, keywords []string, pdfName string) string {
	firstAuthor, year, journal := "", "", ""
	if info != nil {
		if len(info.Authors) > 0 {
			firstAuthor = info.Authors[0]
		}
		year = info.Year
		journal = info.Journal
	}

	var tags strings.Builder
	for _, keyword := range keywords {
		if tag := sanitizeKeyword(keyword); tag != "" {
			fmt.Fprintf(&tags, "  - %s\n", tag)
		}
	}

	paperLink := ""
	if pdfName != "" {
		paperLink = fmt.Sprintf("[[%s.pdf]]", pdfName)
	}

	return fmt.Sprintf(`---
title: %q
first_author: %s
year: %s
journal: %q
DOI: ""
paper_link: %q
tags:
%s---`, title, firstAuthor, year, journal, paperLink, tags.String())
}

// sanitizeKeyword turns a keyword into a tag-safe token: bracketed
// qualifiers removed, spaces replaced with underscores, punctuation that
// breaks tags dropped.
func sanitizeKeyword(keyword string) string {
	cleaned := bracketedText.ReplaceAllString(keyword, "")
	cleaned = strings.ReplaceAll(cleaned, "'", "")
	cleaned = strings.ReplaceAll(cleaned, "–", "-")
	cleaned = strings.ReplaceAll(cleaned, "+", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "_")
	return strings.Trim(cleaned, "_")
}

// safeAuthorName keeps letters, digits, hyphens and underscores; spaces
// become underscores and everything else is dropped.
func safeAuthorName(name string) string {
	var builder strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			builder.WriteRune(r)
		case r == ' ':
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

// uniquePath returns dir/base<ext>, appending a counter until the name is
// free.
func uniquePath(dir, base, ext string) string {
	candidate := filepath.Join(dir, base+ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, counter, ext))
	}
}

// uniquePDFPath picks the renamed PDF location next to the input, tolerating
// the case where the input already carries the final name.
func uniquePDFPath(inputPath, base string) string {
	dir := filepath.Dir(inputPath)
	candidate := filepath.Join(dir, base+".pdf")
	for counter := 1; ; counter++ {
		if candidate == inputPath {
			return candidate
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", base, counter))
	}
}

func renderStandardReport(state stategraph.State, frontmatter string) string {
	return fmt.Sprintf(`%s

## Summary
### Research Background
%s

### Research Purpose
%s

### Methodology
%s

### Results
%s

### Key Contributions
%s

### Conclusion
%s

---
## Link
- `,
		frontmatter,
		state.GetString(keyBackground),
		state.GetString(keyResearchPurpose),
		state.GetString(keyMethodologies),
		state.GetString(keyResults),
		state.GetString(keyKeypoints),
		state.GetString(keyConclusion))
}

func renderReviewReport(state stategraph.State, frontmatter string) string {
	analyses := state.GetStringMap(keySectionAnalyses)

	// Sections render in document order; names the order list does not
	// cover fall back to sorted order.
	names := make([]string, 0, len(analyses))
	seen := map[string]bool{}
	for _, name := range state.GetStringSlice(keySectionOrder) {
		if _, ok := analyses[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	for _, name := range sortedKeys(analyses) {
		if !seen[name] {
			names = append(names, name)
		}
	}

	var sections strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sections, "### %s\n%s\n\n", name, analyses[name])
	}

	return fmt.Sprintf(`%s

## Summary
%s### Conclusion
%s

---
## Link
- `,
		frontmatter, sections.String(), state.GetString(keyConclusion))
}
