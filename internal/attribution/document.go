package attribution

import (
	"fmt"
	"log/slog"
	"strings"

	"aabook/internal/llm"
)

// Line is one speaker-attributed unit of chapter text.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Document is the final attribution result, serialized as-is to JSON.
type Document struct {
	Characters Roster `json:"characters"`
	Lines      []Line `json:"lines"`
}

// Assemble combines a sanitized roster with raw labeled lines into a
// Document. Speakers outside the roster are remapped to Narrator with a
// logged warning; lines that are empty after trimming are dropped. Line
// order is preserved. Assembling an already-clean document changes
// nothing.
func Assemble(roster Roster, lines []llm.Line) (*Document, error) {
	if err := roster.Validate(); err != nil {
		return nil, err
	}

	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}

		speaker := strings.TrimSpace(line.Speaker)
		if !roster.Contains(speaker) {
			if speaker != "" {
				slog.Warn("Speaker not in roster, remapping to Narrator", "speaker", speaker)
			}
			speaker = Narrator
		}

		out = append(out, Line{Speaker: speaker, Text: text})
	}

	doc := &Document{Characters: roster, Lines: out}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Validate checks every document invariant: a valid roster, every line
// speaker drawn from it, and no empty line text.
func (d *Document) Validate() error {
	if err := d.Characters.Validate(); err != nil {
		return err
	}

	for i, line := range d.Lines {
		if !d.Characters.Contains(line.Speaker) {
			return fmt.Errorf("%w: line %d speaker %q not in roster", ErrValidation, i, line.Speaker)
		}
		if strings.TrimSpace(line.Text) == "" {
			return fmt.Errorf("%w: line %d has empty text", ErrValidation, i)
		}
	}

	return nil
}
