// Package llm wraps the OpenAI ChatCompletion and Whisper APIs behind the
// three model-adapter contracts the orchestration core depends on: intent
// parsing, goal decomposition, and response summarization.
package llm

import (
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultChatModel and DefaultTranscriptionModel name the OpenAI models used
// when the config layer does not override them.
var (
	DefaultChatModel          = openai.ChatModelGPT4oMini
	DefaultTranscriptionModel = openai.AudioModelWhisper1
)

// Opts configures a Client. NewClient starts from DefaultChatModel, a 0.2
// temperature and a 20s timeout, then applies the options in order, so an
// option overrides its default even with a zero value. This matches the
// Opts/Option pattern the store package uses for its backend constructors.
type Opts struct {
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Option mutates an Opts during construction.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key. Required; NewClient rejects an empty
// key rather than letting the SDK fail opaquely on the first call.
func WithAPIKey(key string) Option { return func(o *Opts) { o.APIKey = key } }

// WithModel overrides the chat completion model.
func WithModel(model string) Option { return func(o *Opts) { o.Model = model } }

// WithTemperature overrides the sampling temperature used for intent
// parsing and summarization calls.
func WithTemperature(t float64) Option { return func(o *Opts) { o.Temperature = t } }

// WithTimeout bounds every model call issued by the Client. The default
// deadline is 20s.
func WithTimeout(d time.Duration) Option { return func(o *Opts) { o.Timeout = d } }

// Client is the OpenAI-backed implementation of the model adapter, the
// Summarizer, and the speech-to-text adapter.
type Client struct {
	chat        openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// NewClient builds a Client from the given options. An empty API key is a
// configuration error, not a deferred runtime failure.
func NewClient(opts ...Option) (*Client, error) {
	o := Opts{
		Model:       string(DefaultChatModel),
		Temperature: 0.2,
		Timeout:     20 * time.Second,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.APIKey == "" {
		return nil, errMissingAPIKey
	}

	return &Client{
		chat:        openai.NewClient(option.WithAPIKey(o.APIKey)),
		model:       o.Model,
		temperature: o.Temperature,
		timeout:     o.Timeout,
	}, nil
}
