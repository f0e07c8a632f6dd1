package llm

import (
	"strings"
	"testing"

	"github.com/BTreeMap/GoalForge/internal/models"
)

func TestTemplatesRenderIntentParse(t *testing.T) {
	tmpls := NewTemplates()
	bundle := models.PromptBundle{
		UserID:   "u1",
		UserName: "Ada",
		Timezone: "Europe/Moscow",
		ActiveGoals: []models.GoalSummary{
			{GoalID: 1, Title: "Learn Go", Progress: 40},
		},
	}
	out, err := tmpls.Render(TemplateIntentParse, intentParseParams{PromptBundle: bundle, Utterance: "what's next"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "Learn Go") || !strings.Contains(out, "what's next") {
		t.Errorf("expected rendered prompt to contain bundle data, got: %s", out)
	}
}

func TestTemplatesRenderUnknownID(t *testing.T) {
	tmpls := NewTemplates()
	if _, err := tmpls.Render(TemplateID("does_not_exist"), nil); err == nil {
		t.Error("expected an error for an unknown template id")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeIntentSmallTalk(t *testing.T) {
	intent, err := decodeIntent(`{"variant":"small_talk","reply_hint":"greeting"}`)
	if err != nil {
		t.Fatalf("decodeIntent failed: %v", err)
	}
	if intent.Variant != models.IntentSmallTalk || intent.ReplyHint != "greeting" {
		t.Errorf("unexpected intent: %+v", intent)
	}
}

func TestDecodeIntentInvalidJSON(t *testing.T) {
	if _, err := decodeIntent("not json"); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestDecodeStepsValid(t *testing.T) {
	raw := `[{"title":"a","estimated_hours":1,"order":1},
	          {"title":"b","estimated_hours":2,"order":2},
	          {"title":"c","estimated_hours":1.5,"order":3}]`
	steps, err := decodeSteps(raw)
	if err != nil {
		t.Fatalf("decodeSteps failed: %v", err)
	}
	if len(steps) != 3 {
		t.Errorf("expected 3 steps, got %d", len(steps))
	}
}

func TestDecodeStepsTooFew(t *testing.T) {
	raw := `[{"title":"a","estimated_hours":1,"order":1}]`
	if _, err := decodeSteps(raw); err == nil {
		t.Error("expected an error for too few steps")
	}
}

func TestDecodeStepsDuplicateOrder(t *testing.T) {
	raw := `[{"title":"a","estimated_hours":1,"order":1},
	          {"title":"b","estimated_hours":1,"order":1},
	          {"title":"c","estimated_hours":1,"order":2}]`
	if _, err := decodeSteps(raw); err == nil {
		t.Error("expected an error for duplicate orders")
	}
}

func TestFallbackSteps(t *testing.T) {
	steps := fallbackSteps()
	if len(steps) != 1 || steps[0].Order != 1 {
		t.Errorf("unexpected fallback steps: %+v", steps)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Error("expected NewClient to fail without an API key")
	}
}

func TestNewClientAppliesOptions(t *testing.T) {
	c, err := NewClient(WithAPIKey("sk-test"), WithModel("gpt-4o"), WithTemperature(0.5))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.model != "gpt-4o" || c.temperature != 0.5 {
		t.Errorf("unexpected client config: model=%q temp=%v", c.model, c.temperature)
	}
}
