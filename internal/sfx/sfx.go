// Package sfx annotates attributed lines with sound effects, actions
// and delivery cues, and renders them into bracket-tagged text.
package sfx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"aabook/internal/attribution"
	"aabook/internal/llm"
)

const (
	defaultTimeout = 90 * time.Second
	defaultRetries = 1
)

// AnnotatedLine is one attributed line plus its sound analysis. The
// zero fields are omitted so plain narration serializes compactly.
type AnnotatedLine struct {
	Speaker     string           `json:"speaker"`
	Text        string           `json:"text"`
	Emotion     string           `json:"emotion,omitempty"`
	Tone        string           `json:"tone,omitempty"`
	Actions     []string         `json:"actions,omitempty"`
	SoundEvents []llm.SoundEvent `json:"sound_events,omitempty"`
	Formatted   string           `json:"formatted_text,omitempty"`
}

// AnnotatedDocument mirrors attribution.Document with per-line sound
// annotations.
type AnnotatedDocument struct {
	Characters []string        `json:"characters"`
	Lines      []AnnotatedLine `json:"lines"`
}

// Format renders a line with its sound cues inlined. Each sound is
// inserted as " [sound]" immediately after its trigger phrase, and the
// emotion/tone pair is prefixed as "[emotion, tone] ". Trigger phrases
// are matched case-insensitively against the original text so offsets
// always index its bytes, even when case folding changes rune widths;
// a phrase that does not occur in the text is skipped. Insertions run
// back to front so earlier positions stay valid.
func Format(text, emotion, tone string, events []llm.SoundEvent) string {
	type insertion struct {
		pos   int
		sound string
	}

	var inserts []insertion
	for _, ev := range events {
		trigger := strings.TrimSpace(ev.TriggerPhrase)
		sound := strings.TrimSpace(ev.Sound)
		if trigger == "" || sound == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(trigger))
		if err != nil {
			continue
		}
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		inserts = append(inserts, insertion{pos: loc[1], sound: sound})
	}

	// Descending by position, so each splice leaves the earlier
	// offsets untouched.
	for i := 0; i < len(inserts); i++ {
		for j := i + 1; j < len(inserts); j++ {
			if inserts[j].pos > inserts[i].pos {
				inserts[i], inserts[j] = inserts[j], inserts[i]
			}
		}
	}

	formatted := text
	for _, ins := range inserts {
		formatted = formatted[:ins.pos] + " [" + ins.sound + "]" + formatted[ins.pos:]
	}

	emotion = strings.TrimSpace(emotion)
	tone = strings.TrimSpace(tone)
	switch {
	case emotion != "" && tone != "":
		formatted = "[" + emotion + ", " + tone + "] " + formatted
	case emotion != "":
		formatted = "[" + emotion + "] " + formatted
	case tone != "":
		formatted = "[" + tone + "] " + formatted
	}

	return formatted
}

type Options struct {
	Timeout time.Duration
	Retries int
}

// Annotator runs sound-effect detection over an attributed document,
// one line at a time.
type Annotator struct {
	client  llm.Client
	timeout time.Duration
	retries int
}

func NewAnnotator(client llm.Client, opts Options) *Annotator {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries == 0 {
		opts.Retries = defaultRetries
	}

	return &Annotator{
		client:  client,
		timeout: opts.Timeout,
		retries: opts.Retries,
	}
}

// Annotate analyses every line of the document. A line whose analysis
// keeps failing is kept unannotated rather than failing the whole
// document; upstream errors still abort.
func (a *Annotator) Annotate(ctx context.Context, doc *attribution.Document) (*AnnotatedDocument, error) {
	out := &AnnotatedDocument{
		Characters: doc.Characters,
		Lines:      make([]AnnotatedLine, 0, len(doc.Lines)),
	}

	for i, line := range doc.Lines {
		annotated := AnnotatedLine{Speaker: line.Speaker, Text: line.Text}

		report, err := a.detect(ctx, line.Text)
		switch {
		case err == nil:
			annotated.Emotion = report.Emotion
			annotated.Tone = report.Tone
			annotated.Actions = report.Actions
			annotated.SoundEvents = report.SoundEvents
			annotated.Formatted = Format(line.Text, report.Emotion, report.Tone, report.SoundEvents)
		case errors.Is(err, llm.ErrSchema):
			slog.Warn("Sound analysis failed, keeping line unannotated", "line", i, "error", err)
		default:
			return nil, fmt.Errorf("annotate line %d: %w", i, err)
		}

		out.Lines = append(out.Lines, annotated)
	}

	return out, nil
}

func (a *Annotator) detect(ctx context.Context, sentence string) (*llm.SoundReport, error) {
	var report *llm.SoundReport
	var err error
	for attempt := 0; attempt <= a.retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		report, err = a.client.DetectSoundEffects(callCtx, sentence)
		cancel()

		if err == nil || !errors.Is(err, llm.ErrSchema) {
			return report, err
		}
	}
	return nil, err
}
