package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// LowStockItem is one size or variant that dropped to the low-stock level.
type LowStockItem struct {
	Option string
	Size   string
	Stock  int
}

type LowStockAlert struct {
	ProductID   string
	ProductName string
	ProductSlug string
	AdminURL    string
	Items       []LowStockItem
}

const lowStockText = `Stock is running low for {{.ProductName}} ({{.ProductSlug}}):
{{range .Items}}
- {{if .Option}}{{.Option}} / {{end}}{{.Size}}: {{.Stock}} left{{end}}
{{if .AdminURL}}
Manage stock: {{.AdminURL}}{{end}}
`

const lowStockHTML = `<p>Stock is running low for <strong>{{.ProductName}}</strong> ({{.ProductSlug}}):</p>
<ul>{{range .Items}}
  <li>{{if .Option}}{{.Option}} / {{end}}{{.Size}}: {{.Stock}} left</li>{{end}}
</ul>{{if .AdminURL}}
<p><a href="{{.AdminURL}}">Manage stock</a></p>{{end}}
`

// Renderer renders alert emails.
type Renderer struct {
	text *template.Template
	html *htmltemplate.Template
}

func NewRenderer() (*Renderer, error) {
	text, err := template.New("low_stock_text").Parse(lowStockText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	html, err := htmltemplate.New("low_stock_html").Parse(lowStockHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return &Renderer{text: text, html: html}, nil
}

func (r *Renderer) LowStock(to string, alert *LowStockAlert) (*Email, error) {
	if alert == nil || len(alert.Items) == 0 {
		return nil, fmt.Errorf("alert has no items")
	}

	var textBuf, htmlBuf bytes.Buffer
	if err := r.text.Execute(&textBuf, alert); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}
	if err := r.html.Execute(&htmlBuf, alert); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &Email{
		To:      to,
		Subject: fmt.Sprintf("Low stock: %s", alert.ProductName),
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}
