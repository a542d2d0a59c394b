package web

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	richTextPolicyOnce sync.Once
	richTextPolicy     *bluemonday.Policy
)

// RichTextPolicy allows the formatting markdown produces and nothing that
// can run script.
func RichTextPolicy() *bluemonday.Policy {
	richTextPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowURLSchemes("http", "https", "mailto")
		policy.RequireParseableURLs(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		richTextPolicy = policy
	})
	return richTextPolicy
}

// renderMarkdown turns model output into sanitized HTML for the analysis
// panels.
func renderMarkdown(s string) template.HTML {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	rendered := blackfriday.Run([]byte(s), blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.HardLineBreak))
	return template.HTML(RichTextPolicy().SanitizeBytes(rendered))
}

type templateRenderer struct {
	templates *template.Template
}

func newTemplateRenderer() *templateRenderer {
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}
	return &templateRenderer{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
	}
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
