package alerts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/bissquit/asset-desk/internal/sla"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const alertTemplate = "mattermost_alert"

// Renderer renders alerts from templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a new renderer and loads the alert template.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"title":          titleCase,
		"formatDuration": sla.FormatDuration,
		"legName":        legName,
		"kindEmoji":      kindEmoji,
	}

	filename := fmt.Sprintf("templates/%s.tmpl", alertTemplate)
	content, err := templatesFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", filename, err)
	}

	tmpl, err := template.New(alertTemplate).Funcs(funcMap).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", alertTemplate, err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render returns the subject and body of an alert.
func (r *Renderer) Render(a Alert) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, a); err != nil {
		return "", "", fmt.Errorf("execute template %s: %w", alertTemplate, err)
	}
	return renderSubject(a), strings.TrimSpace(buf.String()), nil
}

func renderSubject(a Alert) string {
	prefix := "SLA Breached"
	if a.Kind == KindOverdue {
		prefix = "SLA Overdue"
	}
	return fmt.Sprintf("[%s] %s", prefix, a.Title)
}

var titleCaser = cases.Title(language.English)

func titleCase(s string) string {
	return titleCaser.String(s)
}

func legName(l sla.Leg) string {
	return string(l) + " time"
}

func kindEmoji(k Kind) string {
	switch k {
	case KindBreached:
		return "🔴"
	case KindOverdue:
		return "🟠"
	default:
		return "⚪"
	}
}
