package util

import (
	"bytes"
	"strings"
	"text/template"
)

// RenderTemplate replaces template variables using Go's text/template package.
// This lives in internal to avoid committing to public API stability prematurely.
func RenderTemplate(text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join":  func(sep string, items []string) string { return strings.Join(items, sep) },
	}).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
