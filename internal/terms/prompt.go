package terms

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultPrompt asks for short, niche marketplace search phrases in the JSON
// shape Generate expects.
const DefaultPrompt = `Generate {{.Count}} search terms (no more than {{.MaxWords}} words each) for random niche etsy search terms in {{.Year}}.
Respond with a JSON object in the following format:
{
    "search_terms": [
        "term1",
        "term2",
        ...
    ]
}`

// PromptData fills the prompt template.
type PromptData struct {
	Count    int
	MaxWords int
	Year     int
}

// RenderPrompt executes tmpl (DefaultPrompt when empty) against data.
func RenderPrompt(tmpl string, data PromptData) (string, error) {
	if tmpl == "" {
		tmpl = DefaultPrompt
	}
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return b.String(), nil
}
