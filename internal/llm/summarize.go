package llm

import (
	"context"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// Summarize turns a dispatcher result into user-facing text under one of
// the three response strategies. A model failure degrades to a plain-text
// fallback
// rather than failing the whole turn, since the mutation already
// succeeded by the time summarization runs.
func (c *Client) Summarize(ctx context.Context, templates *Templates, strategy models.ResponseType, result any) string {
	var id TemplateID
	switch strategy {
	case models.ResponseRenderTable:
		id = TemplateSummarizeTable
	case models.ResponseAskClarification:
		id = TemplateSummarizeClarify
	default:
		id = TemplateSummarizeFinal
	}

	prompt, err := templates.Render(id, summarizeParams{Result: result})
	if err != nil {
		return fallbackSummary(result)
	}

	text, err := c.complete(ctx, prompt, "")
	if err != nil || text == "" {
		return fallbackSummary(result)
	}
	return text
}

type summarizeParams struct {
	Result  any
	Missing string
	Context any
}

func fallbackSummary(result any) string {
	return "Done."
}
