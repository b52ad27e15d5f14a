package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/minsupark/paperlens/core/client"
	"github.com/minsupark/paperlens/core/stategraph"
	"github.com/minsupark/paperlens/providers/observability"
)

func (a *Agent) extractTitle(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	c, err := a.clients.ForNode(nodeExtractTitle)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Extract the title of this academic paper. Return ONLY the title text, nothing else.

Paper content (first pages):
%s

Title:`, firstPages(state, 2))

	title, err := c.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)

	a.observer.Info(ctx, "title extracted",
		observability.String("title", observability.TruncateString(title, 50)),
	)

	return stategraph.Update{keyTitle: title}, nil
}

func (a *Agent) extractAbstract(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	c, err := a.clients.ForNode(nodeExtractAbstract)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Extract the abstract of this academic paper. Return ONLY the abstract text, nothing else.
If there is no explicit abstract section, return the introductory summary paragraph.

Paper content (first pages):
%s

Abstract:`, firstPages(state, 3))

	abstract, err := c.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return stategraph.Update{keyAbstract: strings.TrimSpace(abstract)}, nil
}

func (a *Agent) extractConclusion(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	c, err := a.clients.ForNode(nodeExtractConclusion)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Extract the conclusion section of this academic paper. Return ONLY the conclusion text, nothing else.
Look for sections titled "Conclusion", "Conclusions", "Discussion", "Summary", or similar.

Paper content:
%s

Conclusion:`, fullText(state))

	conclusion, err := c.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return stategraph.Update{keyConclusion: strings.TrimSpace(conclusion)}, nil
}

func (a *Agent) extractBasicInfo(ctx context.Context, state stategraph.State) (stategraph.Update, error) {
	c, err := a.clients.ForNode(nodeExtractBasicInfo)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Extract the basic information from this academic paper.

Paper content (first pages):
%s`, firstPages(state, 2))

	info, err := client.InvokeAs[BasicInfo](ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	firstAuthor := "Unknown"
	if len(info.Authors) > 0 {
		firstAuthor = info.Authors[0]
	}
	a.observer.Info(ctx, "basic info extracted",
		observability.String("first_author", firstAuthor),
		observability.String("year", info.Year),
	)

	return stategraph.Update{keyBasicInfo: info}, nil
}
