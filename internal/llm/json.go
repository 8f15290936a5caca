package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("```(?:json)?\n([\\s\\S]*?)\n```")

// extractJSON pulls a JSON document out of a model response, tolerating
// code fences and surrounding prose. The response is untrusted input.
func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)

	if json.Valid([]byte(content)) {
		return content, nil
	}

	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		fenced := strings.TrimSpace(m[1])
		if json.Valid([]byte(fenced)) {
			return fenced, nil
		}
		content = fenced
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		sliced := content[start : end+1]
		if json.Valid([]byte(sliced)) {
			return sliced, nil
		}
	}

	return "", fmt.Errorf("%w: no valid JSON in response", ErrSchema)
}

func parseCharacters(content string) ([]string, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Characters []string `json:"characters"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Characters != nil {
		return wrapped.Characters, nil
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("%w: expected a character name array, got %.80q", ErrSchema, raw)
	}
	return names, nil
}

func parseLines(content string) ([]Line, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Lines []Line `json:"lines"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Lines != nil {
		return wrapped.Lines, nil
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("%w: expected an array of speaker/text lines, got %.80q", ErrSchema, raw)
	}
	return lines, nil
}

func parseSoundReport(content string) (*SoundReport, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var report SoundReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("%w: expected a sound report object, got %.80q", ErrSchema, raw)
	}
	return &report, nil
}
