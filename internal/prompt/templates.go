package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// SystemPromptData is the input of the system prompt template.
type SystemPromptData struct {
	Dialect    string
	DBContext  string
	RefReq     string
	References string
}

// Templates holds the parsed system prompt and the reference directive.
type Templates struct {
	system    *template.Template
	directive string
}

// LoadTemplates parses the embedded templates, replacing either one with the
// file at the given path when it is non-empty.
func LoadTemplates(systemPath, referencesPath string) (*Templates, error) {
	systemText, err := readAsset("templates/text2sql.tmpl", systemPath)
	if err != nil {
		return nil, err
	}
	directive, err := readAsset("templates/references.tmpl", referencesPath)
	if err != nil {
		return nil, err
	}

	system, err := template.New("text2sql").Option("missingkey=error").Parse(systemText)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}

	return &Templates{
		system:    system,
		directive: strings.TrimSpace(directive),
	}, nil
}

func readAsset(embedded, override string) (string, error) {
	if override != "" {
		b, err := os.ReadFile(override)
		if err != nil {
			return "", fmt.Errorf("read template %s: %w", override, err)
		}
		return string(b), nil
	}
	b, err := templateFS.ReadFile(embedded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReferenceDirective is the instruction placed before retrieved references.
func (t *Templates) ReferenceDirective() string {
	return t.directive
}

func (t *Templates) SystemPrompt(data SystemPromptData) (string, error) {
	var buf bytes.Buffer
	if err := t.system.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return buf.String(), nil
}
