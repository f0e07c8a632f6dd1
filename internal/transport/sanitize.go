package transport

import "github.com/microcosm-cc/bluemonday"

// allowedPolicy restricts outbound text to one HTML subset: <b>, <i>,
// <code>, <pre>, and nothing else — every other tag and attribute is
// stripped, not escaped, matching bluemonday's default "drop what isn't
// allowed" behavior.
var allowedPolicy = newAllowedPolicy()

func newAllowedPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "code", "pre")
	return p
}

// Sanitize restricts html to the allowed subset before it reaches a
// Sender. Callers run this on every piece of core-generated text that
// will be sent outbound, never on raw user input (which is never
// rendered as HTML in the first place).
func Sanitize(html string) string {
	return allowedPolicy.Sanitize(html)
}
