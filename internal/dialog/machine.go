package dialog

import (
	"fmt"
	"strings"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// errWrongState marks a callback that is syntactically valid but arrived
// while the user's session was not in the state it expects (e.g.
// day_pref outside SCHEDULE_PREFS_DAYS).
var errWrongState = fmt.Errorf("dialog: callback received in the wrong state")

// SchedulePrefs is what SCHEDULE_PREFS_DAYS/_TIME accumulated by the time
// time_pref_done fires: the weekday set and the preferred start time,
// ready for the Auto-Scheduler's Phase 2/3.
type SchedulePrefs struct {
	Days         []int // 0=Mon..6=Sun
	Hour         int   // resolved clock hour; zero value when ExplicitTime is set
	ExplicitTime string
}

// EditCommit is a completed *_EDIT_* sub-flow: the free-text reply that
// should now be written to (Entity, Field) of the row named by ID.
type EditCommit struct {
	Entity   string
	Field    string
	ID       int64
	NewValue string
}

// Outcome is what the Dialog State Machine did with one inbound callback
// or free-text message. Handled reports whether the machine consumed the
// input entirely; when false (only possible from HandleCallback's
// `confirm:<op>:<id>` case, or from HandleFreeText while IDLE), the
// caller must still act — dispatch the confirm to the pipeline, or treat
// the free text as a fresh utterance for the Intent Parser.
type Outcome struct {
	Handled bool
	State   models.DialogStateType
	Text    string
	Buttons [][]models.Button

	GoalReady     *GoalDraft     // SMART passed; pipeline must create Goal+Steps now
	ScheduleDays  []int          // day_pref_done fired; informational
	ScheduleReady *SchedulePrefs // time_pref_done fired; pipeline must run the Auto-Scheduler
	EditCommitted *EditCommit    // a free-text edit reply was applied

	ConfirmOp string // set when Handled=false from a confirm callback
	ConfirmID int64
}

// Machine is the dialog state machine: StateManager persistence plus the
// transition logic for moving between dialog states.
type Machine struct {
	states StateManager
}

// NewMachine builds a Machine over the given StateManager.
func NewMachine(states StateManager) *Machine {
	return &Machine{states: states}
}

// Current returns userID's session, resetting it to IDLE first if its
// inactivity has exceeded models.DialogStateTimeout.
func (mc *Machine) Current(userID string, now time.Time) (models.SessionState, error) {
	return mc.states.Current(userID, now)
}

// EnterGoalClarification persists a failed-SMART draft into
// GOAL_CLARIFICATION and returns the targeted follow-up question to ask.
func (mc *Machine) EnterGoalClarification(userID string, draft GoalDraft, now time.Time) (string, error) {
	_, followUp := ValidateSmart(draft)
	if followUp == "" {
		followUp = "Расскажите немного подробнее об этой цели."
	}
	if err := mc.states.Transition(userID, models.StateGoalClarification, contextFromDraft(draft), now); err != nil {
		return "", err
	}
	return followUp, nil
}

// HandleCallback parses and applies token against userID's current
// session.
func (mc *Machine) HandleCallback(userID, token string, now time.Time) (Outcome, error) {
	cb, err := ParseCallback(token)
	if err != nil {
		return Outcome{}, err
	}
	session, err := mc.states.Current(userID, now)
	if err != nil {
		return Outcome{}, err
	}

	switch cb.Kind {
	case CallbackCancel:
		if err := mc.states.Reset(userID, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{Handled: true, State: models.StateIdle, Text: "Отменено."}, nil

	case CallbackEdit:
		fields, ok := models.EditEntityFieldStates[cb.Entity]
		if !ok {
			return Outcome{}, fmt.Errorf("%w: entity %q", errNotEditable, cb.Entity)
		}
		newState, ok := fields[cb.Field]
		if !ok {
			return Outcome{}, fmt.Errorf("%w: %s.%s", errNotEditable, cb.Entity, cb.Field)
		}
		ctx := map[string]any{"entity": cb.Entity, "field": cb.Field, "id": cb.ID}
		if err := mc.states.Transition(userID, newState, ctx, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{Handled: true, State: newState, Text: editPromptText(cb.Entity, cb.Field)}, nil

	case CallbackDayPref:
		if session.State != models.StateSchedulePrefsDays {
			return Outcome{}, fmt.Errorf("%w: day_pref in state %s", errWrongState, session.State)
		}
		days := addDay(daysFromContext(session.StateContext), cb.Day)
		ctx := map[string]any{"days": days}
		if err := mc.states.Transition(userID, models.StateSchedulePrefsDays, ctx, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{Handled: true, State: models.StateSchedulePrefsDays, Text: daysSoFarText(days)}, nil

	case CallbackDayPrefDone:
		if session.State != models.StateSchedulePrefsDays {
			return Outcome{}, fmt.Errorf("%w: day_pref_done in state %s", errWrongState, session.State)
		}
		days := daysFromContext(session.StateContext)
		if len(days) == 0 {
			return Outcome{Handled: true, State: session.State, Text: "Выберите хотя бы один день недели."}, nil
		}
		if err := mc.states.Transition(userID, models.StateSchedulePrefsTime, map[string]any{"days": days}, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{Handled: true, State: models.StateSchedulePrefsTime, ScheduleDays: days, Text: "В какое время вам удобно: утром, днём, вечером — или укажите точное время (ЧЧ:MM)?"}, nil

	case CallbackTimePref:
		if session.State != models.StateSchedulePrefsTime {
			return Outcome{}, fmt.Errorf("%w: time_pref in state %s", errWrongState, session.State)
		}
		ctx := map[string]any{"days": daysFromContext(session.StateContext), "time_pref": cb.TimePref}
		if err := mc.states.Transition(userID, models.StateSchedulePrefsTime, ctx, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{Handled: true, State: models.StateSchedulePrefsTime, Text: "Принято. Нажмите «Готово», когда закончите."}, nil

	case CallbackTimePrefDone:
		if session.State != models.StateSchedulePrefsTime {
			return Outcome{}, fmt.Errorf("%w: time_pref_done in state %s", errWrongState, session.State)
		}
		pref, _ := session.StateContext["time_pref"].(string)
		if pref == "" {
			return Outcome{Handled: true, State: session.State, Text: "Сначала выберите удобное время."}, nil
		}
		hour, explicit, err := resolveTimePref(pref)
		if err != nil {
			return Outcome{}, err
		}
		days := daysFromContext(session.StateContext)
		if err := mc.states.Reset(userID, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{Handled: true, State: models.StateIdle, ScheduleReady: &SchedulePrefs{Days: days, Hour: hour, ExplicitTime: explicit}}, nil

	case CallbackConfirm:
		return Outcome{Handled: false, State: session.State, ConfirmOp: cb.Op, ConfirmID: cb.ID}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: %q", errMalformedCallback, token)
	}
}

// HandleFreeText applies text against userID's current session. Callers
// must have already confirmed the session is non-IDLE (via Current) if
// they want to skip the Intent Parser on a false Handled — HandleFreeText
// itself also checks, so it is safe to call unconditionally.
func (mc *Machine) HandleFreeText(userID, text string, now time.Time) (Outcome, error) {
	session, err := mc.states.Current(userID, now)
	if err != nil {
		return Outcome{}, err
	}

	switch session.State {
	case models.StateIdle:
		return Outcome{Handled: false, State: models.StateIdle}, nil

	case models.StateGoalClarification:
		draft := draftFromContext(session.StateContext)
		mergeFreeTextIntoDraft(&draft, text)
		if ok, followUp := ValidateSmart(draft); !ok {
			if err := mc.states.Transition(userID, models.StateGoalClarification, contextFromDraft(draft), now); err != nil {
				return Outcome{}, err
			}
			return Outcome{Handled: true, State: models.StateGoalClarification, Text: followUp}, nil
		}
		if err := mc.states.Transition(userID, models.StateSchedulePrefsDays, map[string]any{}, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{Handled: true, State: models.StateSchedulePrefsDays, GoalReady: &draft, Text: "Отлично! В какие дни недели вам удобно заниматься?"}, nil

	default:
		entity, _ := session.StateContext["entity"].(string)
		field, _ := session.StateContext["field"].(string)
		if entity == "" || field == "" {
			return Outcome{}, fmt.Errorf("%w: missing edit context in state %s", errMalformedCallback, session.State)
		}
		id := int64FromAny(session.StateContext["id"])
		if err := mc.states.Reset(userID, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Handled:       true,
			State:         models.StateIdle,
			Text:          "Готово, обновлено.",
			EditCommitted: &EditCommit{Entity: entity, Field: field, ID: id, NewValue: strings.TrimSpace(text)},
		}, nil
	}
}

func editPromptText(entity, field string) string {
	return fmt.Sprintf("Введите новое значение для %s.%s:", entity, field)
}

func daysSoFarText(days []int) string {
	names := []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}
	chosen := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(names) {
			chosen = append(chosen, names[d])
		}
	}
	return "Выбрано: " + strings.Join(chosen, ", ") + ". Выберите ещё или нажмите «Готово»."
}
