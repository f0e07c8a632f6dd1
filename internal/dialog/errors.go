// Package dialog implements the dialog state machine: it tracks each
// user's per-turn conversational position, decides when an intent must
// be deferred into a multi-turn sub-flow, and resumes flows on callback
// input, using a StateManager interface plus a store-backed
// implementation built around GoalForge's fixed state enum rather than
// a generic per-flow state machine.
package dialog

import "errors"

// errMalformedCallback marks a callback_data token outside the known
// grammar; the caller maps this to ErrIntentInvalid.
var errMalformedCallback = errors.New("dialog: malformed callback token")

// errNotEditable marks an edit callback naming an (entity, field) pair
// models.EditEntityFieldStates does not recognize.
var errNotEditable = errors.New("dialog: entity/field is not editable")
