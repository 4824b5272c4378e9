package synth

import (
	"context"

	"pdfpod/internal/services/elevenlabs"
)

// Request is one utterance to render.
type Request struct {
	Text         string
	VoiceID      string
	PreviousText string
}

// Speaker renders a request into WAV bytes.
type Speaker interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(ctx context.Context, req Request) ([]byte, error)

// Synthesize implements Speaker.
func (f SpeakerFunc) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// ElevenLabs returns a Speaker backed by the ElevenLabs client.
func ElevenLabs(client *elevenlabs.Client) Speaker {
	return SpeakerFunc(func(ctx context.Context, req Request) ([]byte, error) {
		return client.Synthesize(ctx, req.Text, req.VoiceID, req.PreviousText)
	})
}
