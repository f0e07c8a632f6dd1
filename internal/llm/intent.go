package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/openai/openai-go"
)

// complete issues one ChatCompletion call with the Client's configured
// model, temperature, and timeout, returning the first choice's content.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.chat.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", models.ErrIntentTimeout, err)
		}
		return "", fmt.Errorf("llm: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", models.ErrIntentParseError)
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseIntent renders the prompt, invokes the model, and decodes the
// JSON reply into the closed Intent
// tagged union. A malformed first reply is retried once with a stricter
// "reply JSON only" reminder before surfacing ErrIntentParseError.
func (c *Client) ParseIntent(ctx context.Context, templates *Templates, bundle models.PromptBundle, utterance string) (*models.Intent, error) {
	params := intentParseParams{PromptBundle: bundle, Utterance: utterance}
	systemPrompt, err := templates.Render(TemplateIntentParse, params)
	if err != nil {
		return nil, err
	}

	raw, err := c.complete(ctx, systemPrompt, utterance)
	if err != nil {
		return nil, err
	}

	intent, err := decodeIntent(raw)
	if err == nil {
		return intent, nil
	}

	strictPrompt, rerr := templates.Render(TemplateIntentParseStrict, strictRetryParams{Utterance: utterance})
	if rerr != nil {
		return nil, rerr
	}
	raw, err = c.complete(ctx, systemPrompt, strictPrompt)
	if err != nil {
		return nil, err
	}
	intent, err = decodeIntent(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIntentParseError, err)
	}
	return intent, nil
}

type intentParseParams struct {
	models.PromptBundle
	Utterance string
}

type strictRetryParams struct {
	Utterance string
}

// decodeIntent strips markdown code fences the model sometimes wraps JSON
// in despite instructions, then unmarshals into Intent.
func decodeIntent(raw string) (*models.Intent, error) {
	cleaned := stripCodeFence(raw)
	var intent models.Intent
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		return nil, fmt.Errorf("decode intent JSON: %w", err)
	}
	return &intent, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
