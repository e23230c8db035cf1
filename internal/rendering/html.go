// Package rendering converts proposal text to HTML.
package rendering

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/jonathan/proposal-writer/internal/types"
)

// Letters use single newlines as real line breaks and often paste bare URLs,
// so hard wraps and linkify are on. Raw HTML in model output stays escaped.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

//go:embed page.html.tmpl
var pageTemplate string

var page = template.Must(template.New("page").Parse(pageTemplate))

// ToHTML renders proposal text as an HTML fragment.
func ToHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", &RenderError{Message: "failed to convert markdown", Cause: err}
	}
	return buf.String(), nil
}

// PageData is the data passed to the page template.
type PageData struct {
	Title         string
	Body          template.HTML
	PortfolioUsed int
	Portfolio     types.Portfolio
}

// ToPage renders a standalone HTML page for a proposal.
func ToPage(title string, proposal types.Proposal) (string, error) {
	body, err := ToHTML(proposal.Text)
	if err != nil {
		return "", err
	}

	data := PageData{
		Title: title,
		// goldmark output with unsafe rendering off contains no raw input HTML.
		Body:          template.HTML(body), //nolint:gosec // see above
		PortfolioUsed: proposal.PortfolioUsed,
		Portfolio:     proposal.Portfolio,
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", &TemplateError{Message: "failed to execute page template", Cause: err}
	}
	return buf.String(), nil
}
