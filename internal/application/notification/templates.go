package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Template names
const (
	TemplateOrderCreated = "order_created"
	TemplateBudgetReady  = "budget_ready"
	TemplateCompleted    = "order_completed"
)

var defaultTemplates = map[string]struct {
	subject string
	body    string
}{
	TemplateOrderCreated: {
		subject: "Ordem de serviço {{.OrderNumber}} recebida",
		body: `Olá, {{title .CustomerName}}.

Recebemos seu veículo e abrimos a ordem de serviço {{.OrderNumber}}.
Avisaremos assim que o orçamento estiver pronto.
`,
	},
	TemplateBudgetReady: {
		subject: "Orçamento da ordem {{.OrderNumber}} disponível",
		body: `Olá, {{title .CustomerName}}.

O orçamento da ordem de serviço {{.OrderNumber}} está pronto: {{money .Budget}}.
Enviado em {{date .SentAt}}. Responda aprovando ou recusando o orçamento.
`,
	},
	TemplateCompleted: {
		subject: "Ordem de serviço {{.OrderNumber}} concluída",
		body: `Olá, {{title .CustomerName}}.

O serviço da ordem {{.OrderNumber}} foi concluído. Seu veículo já pode ser retirado.
`,
	},
}

// TemplateData is the data available to notification templates
type TemplateData struct {
	OrderNumber  string
	CustomerName string
	Budget       valueobject.Money
	SentAt       time.Time
}

// Renderer renders notification subjects and bodies
type Renderer struct {
	subjects *template.Template
	bodies   *template.Template
}

// NewRenderer parses the built-in templates
func NewRenderer() (*Renderer, error) {
	caser := cases.Title(language.BrazilianPortuguese)
	funcs := template.FuncMap{
		"title": func(s string) string { return caser.String(strings.TrimSpace(s)) },
		"money": func(m valueobject.Money) string { return m.Format() },
		"date":  func(t time.Time) string { return t.Format("02/01/2006 15:04") },
	}

	r := &Renderer{
		subjects: template.New("subjects").Funcs(funcs),
		bodies:   template.New("bodies").Funcs(funcs),
	}
	for name, tmpl := range defaultTemplates {
		if _, err := r.subjects.New(name).Parse(tmpl.subject); err != nil {
			return nil, fmt.Errorf("parse subject %s: %w", name, err)
		}
		if _, err := r.bodies.New(name).Parse(tmpl.body); err != nil {
			return nil, fmt.Errorf("parse body %s: %w", name, err)
		}
	}
	return r, nil
}

// Render returns the subject and body of a template
func (r *Renderer) Render(name string, data TemplateData) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := r.subjects.ExecuteTemplate(&buf, name, data); err != nil {
		return "", "", fmt.Errorf("render subject %s: %w", name, err)
	}
	subject = buf.String()

	buf.Reset()
	if err := r.bodies.ExecuteTemplate(&buf, name, data); err != nil {
		return "", "", fmt.Errorf("render body %s: %w", name, err)
	}
	return subject, buf.String(), nil
}

// orderNumber is the short form of an order id shown to customers
func orderNumber(id fmt.Stringer) string {
	return strings.ToUpper(id.String()[:8])
}
