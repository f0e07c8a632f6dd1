// Package models defines the core data structures for GoalForge.
package models

import "errors"

// Error taxonomy for the orchestration core. Handlers never propagate raw
// store/driver errors to the user; every external-facing failure is mapped
// to one of these sentinels before it reaches the dispatcher's response
// construction step.
var (
	// ErrIntentTimeout is returned when the model adapter does not respond
	// within the configured deadline.
	ErrIntentTimeout = errors.New("intent parsing timed out")
	// ErrIntentParseError is returned when the model's response could not be
	// parsed as JSON after the one-shot strict retry.
	ErrIntentParseError = errors.New("intent response was not valid JSON")
	// ErrIntentInvalid is returned when a syntactically valid intent fails
	// required-field, type, or semantic validation.
	ErrIntentInvalid = errors.New("intent failed validation")
	// ErrReferencesUnknownEntity is returned when an intent names an id that
	// does not resolve against the store, or an ordinal outside its set.
	ErrReferencesUnknownEntity = errors.New("intent references an unknown entity")
	// ErrStoreTransient marks a store failure that was retried once and
	// still failed; the caller's transaction has been rolled back.
	ErrStoreTransient = errors.New("store operation failed transiently")
	// ErrStoreConstraint marks a unique/foreign-key violation that must
	// never be surfaced raw to the user.
	ErrStoreConstraint = errors.New("store constraint violated")
	// ErrSchedulerPlacementFailure marks a goal that was persisted with
	// some or all steps left unscheduled because placement could not
	// complete.
	ErrSchedulerPlacementFailure = errors.New("auto-scheduler failed to place all steps")
	// ErrTransportSendFailure marks a failed outbound send to the chat
	// transport adapter.
	ErrTransportSendFailure = errors.New("transport send failed")
	// ErrConfigError marks a fatal startup configuration problem.
	ErrConfigError = errors.New("invalid configuration")
	// ErrStartupStoreUnreachable marks a fatal startup failure to reach the
	// domain store.
	ErrStartupStoreUnreachable = errors.New("store unreachable at startup")
)
