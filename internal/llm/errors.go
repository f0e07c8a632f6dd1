package llm

import "errors"

// errMissingAPIKey is returned by NewClient when no API key was configured.
var errMissingAPIKey = errors.New("llm: OPENAI_API_KEY not set")
