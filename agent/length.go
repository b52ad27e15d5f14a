package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/core/stategraph"
	"github.com/minsupark/paperlens/providers/observability"
)

// checkAnalysisLength records which analysis outputs exceed the configured
// character budget. Dynamic section entries are prefixed so the truncation
// fan-out can address them in the merged map.
func (a *Agent) checkAnalysisLength(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	maxLength := a.settings.MaxAnalysisLength
	var exceeded []string

	if state.GetString(keyPaperType) == config.PaperTypeReview {
		analyses := state.GetStringMap(keySectionAnalyses)
		for _, name := range sortedKeys(analyses) {
			if length := utf8.RuneCountInString(analyses[name]); length > maxLength {
				exceeded = append(exceeded, sectionFieldPrefix+name)
				a.observer.Warn(ctx, "section analysis exceeds length budget",
					observability.String("section", name),
					observability.Int("length", length),
					observability.Int("max", maxLength),
				)
			}
		}
	} else {
		for _, field := range analysisFields {
			if length := utf8.RuneCountInString(state.GetString(field)); length > maxLength {
				exceeded = append(exceeded, field)
				a.observer.Warn(ctx, "analysis field exceeds length budget",
					observability.String("field", field),
					observability.Int("length", length),
					observability.Int("max", maxLength),
				)
			}
		}
	}

	a.observer.Info(ctx, "length check finished", observability.Strings("exceeded", exceeded))

	return stategraph.Update{keyExceededFields: exceeded}, nil
}

// routeTruncate dispatches one truncation instance per exceeded field, or
// moves straight to translation when everything fits.
func (a *Agent) routeTruncate(state stategraph.State) stategraph.RouteDecision {
	exceeded := state.GetStringSlice(keyExceededFields)
	if len(exceeded) == 0 {
		return stategraph.RouteTo(nodeTranslateAnalysis)
	}

	analyses := state.GetStringMap(keySectionAnalyses)

	dispatches := make([]stategraph.Dispatch, 0, len(exceeded))
	for _, field := range exceeded {
		var content string
		if name, isSection := strings.CutPrefix(field, sectionFieldPrefix); isSection {
			content = analyses[name]
		} else {
			content = state.GetString(field)
		}

		dispatches = append(dispatches, stategraph.Dispatch{
			Target: nodeTruncateField,
			SubState: stategraph.State{
				keyTruncateField:   field,
				keyTruncateContent: content,
			},
		})
	}
	return stategraph.RouteDynamic(dispatches)
}

// truncateSingleField condenses one oversized analysis close to, but under,
// the budget. The condensed text is checked once; there is no retry loop, so
// a model that overshoots leaves the field slightly long rather than
// stalling the run.
func (a *Agent) truncateSingleField(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	field := state.GetString(keyTruncateField)
	content := state.GetString(keyTruncateContent)
	if field == "" || content == "" {
		a.observer.Warn(ctx, "truncation dispatch missing field or content",
			observability.String("field", field),
		)
		return nil, nil
	}

	c, err := a.clients.ForNode(nodeTruncateField)
	if err != nil {
		return nil, err
	}

	maxLength := a.settings.MaxAnalysisLength
	targetFloor := maxLength * 8 / 10

	prompt := fmt.Sprintf(`Condense the following analysis to under %d characters.

Requirements:
- Keep bullet point format
- Preserve only the most critical information
- Use the same language as the original

**CRITICAL - DO NOT VIOLATE:**
1. DO NOT reduce too much below the limit. Target length should be close to %d characters (e.g., %d-%d characters).
2. NEVER change the structure of the text. Keep the exact same headings, bullet points, and hierarchy.

Original (%d characters):
%s

Condensed version (%d-%d characters, same structure):`,
		maxLength, maxLength, targetFloor, maxLength,
		utf8.RuneCountInString(content), content, targetFloor, maxLength)

	condensed, err := c.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}
	condensed = strings.TrimSpace(condensed)

	a.observer.Info(ctx, "analysis condensed",
		observability.String("field", field),
		observability.Int("before", utf8.RuneCountInString(content)),
		observability.Int("after", utf8.RuneCountInString(condensed)),
	)

	if name, isSection := strings.CutPrefix(field, sectionFieldPrefix); isSection {
		return stategraph.Update{
			keySectionAnalyses: map[string]string{name: condensed},
		}, nil
	}
	return stategraph.Update{field: condensed}, nil
}
