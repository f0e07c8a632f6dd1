package dialog

import (
	"fmt"
	"strconv"
	"strings"
)

// CallbackKind is the exhaustive set of inline-button callback tokens:
// `edit:<entity>:<field>:<id>` | `day_pref:<0..6>` |
// `day_pref_done` | `time_pref:<morning|afternoon|evening|HH:MM>` |
// `time_pref_done` | `confirm:<op>:<id>` | `cancel`.
type CallbackKind string

const (
	CallbackEdit         CallbackKind = "edit"
	CallbackDayPref      CallbackKind = "day_pref"
	CallbackDayPrefDone  CallbackKind = "day_pref_done"
	CallbackTimePref     CallbackKind = "time_pref"
	CallbackTimePrefDone CallbackKind = "time_pref_done"
	CallbackConfirm      CallbackKind = "confirm"
	CallbackCancel       CallbackKind = "cancel"
)

// Callback is a parsed callback_data token.
type Callback struct {
	Kind CallbackKind

	// edit
	Entity string
	Field  string
	ID     int64

	// confirm
	Op string

	// day_pref
	Day int

	// time_pref: one of "morning"/"afternoon"/"evening" or an explicit HH:MM
	TimePref string
}

// ParseCallback decodes a callback_data string into its tagged form,
// rejecting anything outside the known grammar.
func ParseCallback(data string) (Callback, error) {
	switch {
	case data == string(CallbackDayPrefDone):
		return Callback{Kind: CallbackDayPrefDone}, nil
	case data == string(CallbackTimePrefDone):
		return Callback{Kind: CallbackTimePrefDone}, nil
	case data == string(CallbackCancel):
		return Callback{Kind: CallbackCancel}, nil
	case strings.HasPrefix(data, "edit:"):
		parts := strings.SplitN(data, ":", 4)
		if len(parts) != 4 {
			return Callback{}, fmt.Errorf("%w: malformed edit callback %q", errMalformedCallback, data)
		}
		id, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("%w: edit callback id %q: %v", errMalformedCallback, parts[3], err)
		}
		return Callback{Kind: CallbackEdit, Entity: parts[1], Field: parts[2], ID: id}, nil
	case strings.HasPrefix(data, "day_pref:"):
		day, err := strconv.Atoi(strings.TrimPrefix(data, "day_pref:"))
		if err != nil || day < 0 || day > 6 {
			return Callback{}, fmt.Errorf("%w: day_pref callback %q out of range 0..6", errMalformedCallback, data)
		}
		return Callback{Kind: CallbackDayPref, Day: day}, nil
	case strings.HasPrefix(data, "time_pref:"):
		pref := strings.TrimPrefix(data, "time_pref:")
		if pref == "" {
			return Callback{}, fmt.Errorf("%w: empty time_pref callback", errMalformedCallback)
		}
		return Callback{Kind: CallbackTimePref, TimePref: pref}, nil
	case strings.HasPrefix(data, "confirm:"):
		parts := strings.SplitN(data, ":", 3)
		if len(parts) != 3 {
			return Callback{}, fmt.Errorf("%w: malformed confirm callback %q", errMalformedCallback, data)
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("%w: confirm callback id %q: %v", errMalformedCallback, parts[2], err)
		}
		return Callback{Kind: CallbackConfirm, Op: parts[1], ID: id}, nil
	default:
		return Callback{}, fmt.Errorf("%w: unrecognized callback %q", errMalformedCallback, data)
	}
}
