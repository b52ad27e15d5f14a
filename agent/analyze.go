package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/minsupark/paperlens/config"
	"github.com/minsupark/paperlens/core/stategraph"
	"github.com/minsupark/paperlens/providers/observability"
)

// routeToAnalysis fans out after extraction. Standard papers dispatch the
// five fixed aspect analyzers; review papers dispatch one instance per
// detected section. Each instance sees only the sub-state it needs. A review
// paper without detected sections falls through to the length check.
func (a *Agent) routeToAnalysis(state stategraph.State) stategraph.RouteDecision {
	if state.GetString(keyPaperType) == config.PaperTypeReview {
		sections := state.GetStringMap(keyDynamicSections)

		dispatches := make([]stategraph.Dispatch, 0, len(sections))
		for _, name := range sortedKeys(sections) {
			dispatches = append(dispatches, stategraph.Dispatch{
				Target: nodeAnalyzeDynamicSection,
				SubState: stategraph.State{
					keyCurrentSectionName:    name,
					keyCurrentSectionContent: sections[name],
					keyTitle:                 state.GetString(keyTitle),
					keyAbstract:              state.GetString(keyAbstract),
				},
			})
		}
		return stategraph.RouteDynamic(dispatches)
	}

	common := stategraph.State{
		keyExtractedSections: state.GetStringMap(keyExtractedSections),
		keyPages:             state.GetStringSlice(keyPages),
		keyTitle:             state.GetString(keyTitle),
		keyAbstract:          state.GetString(keyAbstract),
	}

	dispatches := make([]stategraph.Dispatch, 0, len(standardAnalyzeNodes))
	for _, target := range standardAnalyzeNodes {
		dispatches = append(dispatches, stategraph.Dispatch{Target: target, SubState: common})
	}
	return stategraph.RouteDynamic(dispatches)
}

// aspectPrompt describes one fixed analysis aspect of a standard paper.
type aspectPrompt struct {
	heading     string
	focus       string
	sectionName string
	closing     string
}

var aspectPrompts = map[string]aspectPrompt{
	keyBackground: {
		heading: "Analyze the research background and context of this academic paper.",
		focus: `- The problem domain and its importance
- Previous work and literature context
- Gaps in existing research that this paper addresses
- Motivation for conducting this research`,
		sectionName: "introduction",
		closing:     "Research Background Analysis:",
	},
	keyResearchPurpose: {
		heading: "Analyze and clearly state the research purpose and objectives of this academic paper.",
		focus: `- Main research questions or hypotheses
- Specific goals and objectives
- Scope and limitations of the research
- Expected contributions`,
		sectionName: "introduction",
		closing:     "Research Purpose Analysis:",
	},
	keyMethodologies: {
		heading: "Analyze the methodologies used in this academic paper.",
		focus: `- Research design and approach
- Data collection methods
- Analysis techniques
- Tools, frameworks, or systems used
- Experimental setup (if applicable)`,
		sectionName: "methods",
		closing:     "Methodology Analysis:",
	},
	keyResults: {
		heading: "Analyze the results and findings of this academic paper.",
		focus: `- Key experimental or analytical results
- Statistical findings (if applicable)
- Comparisons with baseline or previous work
- Validation of hypotheses
- Unexpected or notable findings`,
		sectionName: "results",
		closing:     "Results Analysis:",
	},
	keyKeypoints: {
		heading: "Identify the key contributions and differentiators of this academic paper.",
		focus: `- Novel contributions to the field
- What makes this work unique compared to prior research
- Practical implications and applications
- Theoretical advancements
- Future research directions suggested`,
		sectionName: "discussion",
		closing:     "Key Contributions and Differentiators:",
	},
}

func (a *Agent) analyzeBackground(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	return a.analyzeAspect(ctx, state, nodeAnalyzeBackground, keyBackground)
}

func (a *Agent) analyzeResearchPurpose(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	return a.analyzeAspect(ctx, state, nodeAnalyzePurpose, keyResearchPurpose)
}

func (a *Agent) analyzeMethodologies(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	return a.analyzeAspect(ctx, state, nodeAnalyzeMethodologies, keyMethodologies)
}

func (a *Agent) analyzeResults(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	return a.analyzeAspect(ctx, state, nodeAnalyzeResults, keyResults)
}

func (a *Agent) analyzeKeypoints(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	return a.analyzeAspect(ctx, state, nodeAnalyzeKeypoints, keyKeypoints)
}

func (a *Agent) analyzeAspect(ctx context.Context, state stategraph.State, nodeName, field string) (stategraph.Update, error) {
	c, err := a.clients.ForNode(nodeName)
	if err != nil {
		return nil, err
	}

	aspect := aspectPrompts[field]
	prompt := fmt.Sprintf(`%s

Include:
%s

**Output Requirements:**
- Use bullet points (structured format, not prose)
- Keep under %d characters
- Use the same language as the paper

Title: %s

Abstract:
%s

Paper Content:
%s

%s`,
		aspect.heading, aspect.focus, a.settings.MaxAnalysisLength,
		state.GetString(keyTitle), state.GetString(keyAbstract),
		sectionOrFullText(state, aspect.sectionName), aspect.closing)

	analysis, err := c.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.observer.Info(ctx, "aspect analyzed", observability.String("field", field))

	return stategraph.Update{field: strings.TrimSpace(analysis)}, nil
}

// analyzeDynamicSection summarizes one review-paper section. It runs as a
// dispatch instance and contributes to the merged section_analyses map.
func (a *Agent) analyzeDynamicSection(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	name := state.GetString(keyCurrentSectionName)
	content := state.GetString(keyCurrentSectionContent)
	if name == "" || content == "" {
		a.observer.Warn(ctx, "dynamic section dispatch missing name or content")
		return nil, nil
	}

	c, err := a.clients.ForNode(nodeAnalyzeDynamicSection)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analyze and summarize this section from an academic review/survey paper.

Section Name: %s

Provide a comprehensive summary that includes:
- Main topics and concepts covered in this section
- Key findings, insights, or arguments presented
- Important classifications, categories, or frameworks mentioned
- Notable examples or case studies discussed
- Connections to other topics or sections

**Output Requirements:**
- Use bullet points (structured format, not prose)
- Keep under %d characters
- Use the same language as the paper
- Focus on the most important information

Paper Title: %s

Abstract:
%s

Section Content:
%s

Section Summary:`,
		name, a.settings.MaxAnalysisLength,
		state.GetString(keyTitle), state.GetString(keyAbstract), content)

	analysis, err := c.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.observer.Info(ctx, "dynamic section analyzed", observability.String("section", name))

	return stategraph.Update{
		keySectionAnalyses: map[string]string{name: strings.TrimSpace(analysis)},
	}, nil
}

// sectionOrFullText prefers the extracted section and falls back to the full
// paper when the section was not found.
func sectionOrFullText(state stategraph.State, sectionName string) string {
	sections := state.GetStringMap(keyExtractedSections)
	if text := sections[sectionName]; text != "" {
		return text
	}
	return fullText(state)
}
