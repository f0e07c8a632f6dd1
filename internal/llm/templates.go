package llm

import (
	"bytes"
	"fmt"
	"text/template"
)

// TemplateID names one entry in the Templates registry, which renders
// each id through Go's text/template.
type TemplateID string

const (
	TemplateIntentParse      TemplateID = "intent_parse"
	TemplateIntentParseStrict TemplateID = "intent_parse_strict"
	TemplateGoalDecompose    TemplateID = "goal_decompose"
	TemplateSummarizeFinal   TemplateID = "summarize_final"
	TemplateSummarizeTable   TemplateID = "summarize_table"
	TemplateSummarizeClarify TemplateID = "summarize_clarify"
)

// Templates is a (template_id, params) -> string registry, parsed once per
// NewTemplates call and reused across every model call.
type Templates struct {
	parsed map[TemplateID]*template.Template
}

// NewTemplates parses the built-in template set. A parse failure here is a
// programmer error, not a runtime condition, so NewTemplates panics rather
// than surfacing it through every call site.
func NewTemplates() *Templates {
	t := &Templates{parsed: make(map[TemplateID]*template.Template, len(rawTemplates))}
	for id, raw := range rawTemplates {
		tmpl, err := template.New(string(id)).Parse(raw)
		if err != nil {
			panic(fmt.Sprintf("llm: template %q failed to parse: %v", id, err))
		}
		t.parsed[id] = tmpl
	}
	return t
}

// Render expands the named template against params. An unknown id is a
// programming error surfaced as a regular error rather than a panic, since
// callers may pass a dynamically chosen id.
func (t *Templates) Render(id TemplateID, params any) (string, error) {
	tmpl, ok := t.parsed[id]
	if !ok {
		return "", fmt.Errorf("llm: unknown template %q", id)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("llm: template %q render failed: %w", id, err)
	}
	return buf.String(), nil
}

var rawTemplates = map[TemplateID]string{
	TemplateIntentParse: `You are the intent parser for a goal-tracking assistant.
Reply with a single JSON object and nothing else. The object has exactly
one of these top-level shapes, keyed by "variant":
small_talk, event.search, event.mutate, goal.search, goal.create,
goal.delete, goal.query, goal.update_step, goal.add_step, goal.delete_step,
product.search.

User: {{.UserName}}
Timezone: {{.Timezone}}
Current time: {{.Now}}
Active goals:
{{range .ActiveGoals}}- #{{.GoalID}} {{.Title}} ({{.Progress}}%)
{{else}}(none)
{{end}}
Upcoming events (next 7 days):
{{range .UpcomingEvents}}- #{{.EventID}} {{.Title}} on {{.Date}}
{{else}}(none)
{{end}}
Recent conversation:
{{range .ConversationHistory}}{{.Role}}: {{.Text}}
{{end}}
{{if .StateContext}}Current dialog state: {{.CurrentState}}, context: {{.StateContext}}
{{end}}
User utterance: {{.Utterance}}`,

	TemplateIntentParseStrict: `Your previous reply was not valid JSON. Reply with ONLY a single JSON
object matching the intent schema, with no surrounding prose, no markdown
fences, and no trailing commentary.

User utterance: {{.Utterance}}`,

	TemplateGoalDecompose: `Decompose the following goal into an ordered list of concrete steps.
Reply with a JSON array of objects, each {"title": string, "estimated_hours": number, "order": integer}.
Produce between 3 and 12 steps. Orders must be unique integers starting at 1.

Goal title: {{.Title}}
Description: {{.Description}}
{{if .TargetDate}}Target date: {{.TargetDate}}{{end}}
User level: {{.UserLevel}}
Time commitment: {{.TimeCommitmentMinutesPerWeek}} minutes/week`,

	TemplateSummarizeFinal: `Summarize the following result for the user in one or two short
sentences, friendly and direct. Do not invent facts not present in the
result.

Result: {{.Result}}`,

	TemplateSummarizeTable: `Write a one-line intro sentence for a table of results the user will
see rendered separately. Do not list the items yourself.

Result: {{.Result}}`,

	TemplateSummarizeClarify: `Write a short, specific follow-up question asking the user for the
missing information below, in a friendly tone.

Missing: {{.Missing}}
Context: {{.Context}}`,
}
