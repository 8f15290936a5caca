package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	System SystemPrompts `yaml:"system"`
	User   UserPrompts   `yaml:"user"`
}

type SystemPrompts struct {
	Characters string `yaml:"characters"`
	Lines      string `yaml:"lines"`
	SFX        string `yaml:"sfx"`
}

type UserPrompts struct {
	Characters string `yaml:"characters"`
	Lines      string `yaml:"lines"`
	SFX        string `yaml:"sfx"`
}

type CharacterParams struct {
	Chapter string
}

type LabelParams struct {
	Chapter    string
	Characters string
}

type SFXParams struct {
	Sentence string
}

// Default returns the prompts compiled into the binary.
func Default() (*Prompts, error) {
	return parse(defaultPrompts)
}

// LoadFrom reads a prompts file, allowing users to override the defaults.
func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	return &p, nil
}

func (p *Prompts) RenderCharacters(params CharacterParams) (string, error) {
	return render(p.User.Characters, params)
}

func (p *Prompts) RenderLabels(params LabelParams) (string, error) {
	return render(p.User.Lines, params)
}

func (p *Prompts) RenderSFX(params SFXParams) (string, error) {
	return render(p.User.SFX, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
