package agent

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var defaultPrompt string

// Prompter renders a RoundRequest into the instruction sent to the judge.
type Prompter struct {
	tmpl *template.Template
}

// NewPrompter uses the built-in template.
func NewPrompter() *Prompter {
	return &Prompter{tmpl: template.Must(template.New("judge").Parse(defaultPrompt))}
}

// LoadPrompter reads a template file; an empty path falls back to the built-in one.
func LoadPrompter(path string) (*Prompter, error) {
	if strings.TrimSpace(path) == "" {
		return NewPrompter(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	t, err := template.New("judge").Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", path, err)
	}
	return &Prompter{tmpl: t}, nil
}

func (p *Prompter) Render(req RoundRequest) (string, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, req); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
