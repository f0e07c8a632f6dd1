package llm

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
)

// SpeechToText transcribes an inbound voice note through OpenAI Whisper
// so the transcript can feed the same ParseIntent entry point as a typed
// utterance.
func (c *Client) SpeechToText(ctx context.Context, audio io.Reader, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.chat.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: DefaultTranscriptionModel,
		File:  audio,
	})
	if err != nil {
		return "", fmt.Errorf("llm: transcription failed: %w", err)
	}
	if resp.Text == "" {
		return "", fmt.Errorf("llm: transcription returned empty text for %q", filename)
	}
	return resp.Text, nil
}
