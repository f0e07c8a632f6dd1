package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/GoalForge/internal/dialog"
	"github.com/BTreeMap/GoalForge/internal/llm"
	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/resultset"
	"github.com/BTreeMap/GoalForge/internal/store"
)

// Placer implements the auto-scheduler's placement phases for an
// already-decomposed, unscheduled goal. Defined at the point of use so
// internal/pipeline depends only on this narrow contract, not on
// internal/scheduler's placement algorithm directly.
type Placer interface {
	PlaceGoal(ctx context.Context, userID string, goalID int64, prefs dialog.SchedulePrefs) error
}

// Dispatcher implements the intent dispatcher: it routes a validated
// intent to its per-variant handler, reads/writes the store
// transactionally (via already-atomic Store methods), and produces a
// Response. It also owns the turn-level orchestration — assemble →
// parse → (dialog may intercept) → dispatch → summarize.
type Dispatcher struct {
	store     store.Store
	llm       *llm.Client
	templates *llm.Templates
	assembler *ContextAssembler
	results   *resultset.Cache
	dialogMC  *dialog.Machine
	placer    Placer
}

// New builds a Dispatcher from its collaborators.
func New(st store.Store, llmClient *llm.Client, templates *llm.Templates, results *resultset.Cache, dialogMC *dialog.Machine, placer Placer) *Dispatcher {
	return &Dispatcher{
		store:     st,
		llm:       llmClient,
		templates: templates,
		assembler: NewContextAssembler(st),
		results:   results,
		dialogMC:  dialogMC,
		placer:    placer,
	}
}

// HandleMessage implements the /process entry point's control flow:
// dialog state may intercept free text before it ever reaches the Intent
// Parser.
func (d *Dispatcher) HandleMessage(ctx context.Context, userID, text string, now time.Time) models.Response {
	d.appendMessage(userID, models.MessageRoleUser, text, now, "")

	session, err := d.dialogMC.Current(userID, now)
	if err != nil {
		return d.errorResponse(err)
	}

	if session.State != models.StateIdle {
		outcome, err := d.dialogMC.HandleFreeText(userID, text, now)
		if err != nil {
			return d.errorResponse(err)
		}
		if outcome.Handled {
			return d.applyDialogOutcome(ctx, userID, outcome, now)
		}
	}

	bundle := d.assembler.Assemble(userID, session, now)
	intent, err := d.llm.ParseIntent(ctx, d.templates, bundle, text)
	if err != nil {
		return d.errorResponse(err)
	}
	return d.dispatchIntent(ctx, userID, intent, now)
}

// HandleCallback implements the /callback entry point.
func (d *Dispatcher) HandleCallback(ctx context.Context, userID, callbackData string, now time.Time) models.Response {
	outcome, err := d.dialogMC.HandleCallback(userID, callbackData, now)
	if err != nil {
		return d.errorResponse(err)
	}
	if !outcome.Handled {
		// Only confirm:<op>:<id> reaches here unhandled: re-run the
		// previously dry-run mutation for real.
		return d.handleConfirm(ctx, userID, outcome.ConfirmOp, outcome.ConfirmID, now)
	}
	return d.applyDialogOutcome(ctx, userID, outcome, now)
}

// applyDialogOutcome turns a dialog.Outcome into a Response, performing
// whatever store/decomposer/scheduler side effect the outcome calls for.
func (d *Dispatcher) applyDialogOutcome(ctx context.Context, userID string, outcome dialog.Outcome, now time.Time) models.Response {
	switch {
	case outcome.GoalReady != nil:
		return d.createGoalFromDraft(ctx, userID, *outcome.GoalReady, now)
	case outcome.ScheduleReady != nil:
		return d.completeScheduling(ctx, userID, *outcome.ScheduleReady, now)
	case outcome.EditCommitted != nil:
		return d.applyEditCommit(userID, *outcome.EditCommitted, now)
	default:
		resp := models.Response{Success: true, ResponseType: models.ResponseAskClarification, Text: outcome.Text, Buttons: outcome.Buttons}
		d.appendMessage(userID, models.MessageRoleAssistant, resp.Text, now, "")
		return resp
	}
}

func (d *Dispatcher) dispatchIntent(ctx context.Context, userID string, intent *models.Intent, now time.Time) models.Response {
	var resp models.Response
	var err error

	switch intent.Variant {
	case models.IntentSmallTalk:
		resp = models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: intent.ReplyHint}
	case models.IntentEventSearch:
		resp, err = d.handleEventSearch(userID, intent, now)
	case models.IntentEventMutate:
		resp, err = d.handleEventMutate(ctx, userID, intent, now)
	case models.IntentGoalSearch:
		resp, err = d.handleGoalSearch(userID, intent, now)
	case models.IntentGoalCreate:
		resp, err = d.handleGoalCreate(ctx, userID, intent, now)
	case models.IntentGoalDelete:
		resp, err = d.handleGoalDelete(userID, intent, now)
	case models.IntentGoalQuery:
		resp, err = d.handleGoalQuery(userID, intent, now)
	case models.IntentGoalUpdateStep:
		resp, err = d.handleGoalUpdateStep(userID, intent, now)
	case models.IntentGoalAddStep:
		resp, err = d.handleGoalAddStep(userID, intent, now)
	case models.IntentGoalDeleteStep:
		resp, err = d.handleGoalDeleteStep(userID, intent, now)
	case models.IntentProductSearch:
		resp = models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: "Поиск товаров пока не подключён.", Items: []any{}}
	default:
		err = fmt.Errorf("%w: unrecognized intent variant %q", models.ErrIntentInvalid, intent.Variant)
	}

	if err != nil {
		return d.errorResponse(err)
	}
	d.appendMessage(userID, models.MessageRoleAssistant, resp.Text, now, string(intent.Variant))
	return resp
}

// resolveRef resolves an EntityRef to a direct id, consulting the Result
// Set cache for an ordinal reference.
func (d *Dispatcher) resolveRef(userID string, ref *models.EntityRef, now time.Time) (int64, error) {
	if ref == nil {
		return 0, fmt.Errorf("%w: missing entity reference", models.ErrIntentInvalid)
	}
	if ref.ID != nil {
		return *ref.ID, nil
	}
	if !ref.HasOrdinal() {
		return 0, fmt.Errorf("%w: entity reference has neither id nor ordinal", models.ErrIntentInvalid)
	}
	id, ok := d.results.Resolve(userID, ref.SetID, ref.Ordinal, now)
	if !ok {
		return 0, fmt.Errorf("%w: set %q ordinal %d", models.ErrReferencesUnknownEntity, ref.SetID, ref.Ordinal)
	}
	return id, nil
}

func (d *Dispatcher) appendMessage(userID string, role models.MessageRole, text string, now time.Time, intent string) {
	if text == "" {
		return
	}
	if err := d.store.AppendMessage(models.ConversationMessage{UserID: userID, Role: role, Text: text, Timestamp: now, Intent: intent}); err != nil {
		slog.Warn("pipeline: failed to append conversation message", "user_id", userID, "error", err)
	}
}

func (d *Dispatcher) errorResponse(err error) models.Response {
	slog.Info("pipeline: turn failed, returning templated response", "error", err)
	return models.Response{Success: false, ResponseType: models.ResponseFinalText, Text: RenderErrorRU(err), Error: err.Error()}
}
