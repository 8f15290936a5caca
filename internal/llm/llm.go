package llm

import (
	"context"
	"errors"
)

// Line is one attributed unit of chapter text as returned by a provider,
// before sanitization.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// SoundEvent is a distinctive sound anchored to the phrase that produces it.
type SoundEvent struct {
	Sound         string `json:"sound"`
	TriggerPhrase string `json:"trigger_phrase"`
}

// SoundReport describes the audio texture of a single sentence.
type SoundReport struct {
	Actions     []string     `json:"actions"`
	SoundEvents []SoundEvent `json:"sound_events"`
	Emotion     string       `json:"emotion"`
	Tone        string       `json:"tone"`
}

var (
	// ErrUpstream marks transport-level failures: unreachable provider,
	// timeout, or a provider-side error response.
	ErrUpstream = errors.New("upstream request failed")

	// ErrSchema marks responses that arrived but could not be parsed into
	// the expected structure.
	ErrSchema = errors.New("response failed schema validation")
)

type Client interface {
	ExtractCharacters(ctx context.Context, chapter string) ([]string, error)
	LabelLines(ctx context.Context, chapter string, characters []string) ([]Line, error)
	DetectSoundEffects(ctx context.Context, sentence string) (*SoundReport, error)
}
