// Package stt provides transcription collaborators. Each provider receives
// the entire accumulated audio window and returns the full transcript text;
// callers own the diffing.
package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Whisper transcribes via the OpenAI audio transcription API. The browser
// sends webm/opus from MediaRecorder; Whisper accepts the container as-is.
type Whisper struct {
	client openai.Client
	model  openai.AudioModel
}

func NewWhisper(apiKey, model string) *Whisper {
	m := openai.AudioModelWhisper1
	if model != "" {
		m = openai.AudioModel(model)
	}
	return &Whisper{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}
}

func (w *Whisper) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model:    w.model,
		File:     openai.File(bytes.NewReader(audio), "chunk.webm", "audio/webm"),
		Language: openai.String(language),
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
