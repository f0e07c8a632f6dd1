package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// MinDecomposedSteps and MaxDecomposedSteps bound the step count the model
// may return for one goal.
const (
	MinDecomposedSteps = 3
	MaxDecomposedSteps = 12
)

// DecomposedStep is one entry of the model's ordered step list for a goal,
// before it has been persisted as a models.Step.
type DecomposedStep struct {
	Title          string  `json:"title"`
	EstimatedHours float64 `json:"estimated_hours"`
	Order          int     `json:"order"`
}

// GoalDraft carries the fields the Goal Decomposer needs for Phase 1,
// gathered from a goal.create intent plus the SMART-validated draft in
// GOAL_CLARIFICATION's state_context.
type GoalDraft struct {
	Title                        string
	Description                  string
	TargetDate                   string // YYYY-MM-DD, may be empty
	UserLevel                    models.UserLevel
	TimeCommitmentMinutesPerWeek int
}

// DecomposeGoal prompts the model for an ordered step list, validates it,
// and retries once before falling back to a
// single catch-all step. It never returns an error — a decomposition that
// cannot be salvaged always yields the fallback step, since a goal must be
// persisted with at least one step.
func (c *Client) DecomposeGoal(ctx context.Context, templates *Templates, draft GoalDraft) []DecomposedStep {
	prompt, err := templates.Render(TemplateGoalDecompose, draft)
	if err != nil {
		return fallbackSteps()
	}

	for attempt := 0; attempt < 2; attempt++ {
		raw, err := c.complete(ctx, prompt, draft.Title)
		if err != nil {
			continue
		}
		steps, err := decodeSteps(raw)
		if err == nil {
			return steps
		}
	}
	return fallbackSteps()
}

func decodeSteps(raw string) ([]DecomposedStep, error) {
	cleaned := stripCodeFence(raw)
	var steps []DecomposedStep
	if err := json.Unmarshal([]byte(cleaned), &steps); err != nil {
		return nil, fmt.Errorf("decode steps JSON: %w", err)
	}
	if err := validateDecomposedSteps(steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func validateDecomposedSteps(steps []DecomposedStep) error {
	n := len(steps)
	if n < MinDecomposedSteps || n > MaxDecomposedSteps {
		return fmt.Errorf("step count %d out of range %d..%d", n, MinDecomposedSteps, MaxDecomposedSteps)
	}
	seenOrders := make(map[int]bool, n)
	for _, s := range steps {
		if s.Title == "" {
			return fmt.Errorf("empty step title")
		}
		if s.EstimatedHours <= 0 {
			return fmt.Errorf("non-positive estimated_hours for %q", s.Title)
		}
		if s.Order < 1 || s.Order > n || seenOrders[s.Order] {
			return fmt.Errorf("invalid or duplicate order %d for %q", s.Order, s.Title)
		}
		seenOrders[s.Order] = true
	}
	return nil
}

// fallbackSteps is the single catch-all step persisted when both
// decomposition attempts fail validation.
func fallbackSteps() []DecomposedStep {
	return []DecomposedStep{{Title: "Work towards this goal", EstimatedHours: 1, Order: 1}}
}
