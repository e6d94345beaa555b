package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"vibetab/internal/docs"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	// Raw HTML passthrough stays off.
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}

var docsPage = template.Must(template.New("docs").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>vibetab: {{.Title}}</title></head>
<body><nav>{{range .Topics}}<a href="/docs/{{.Name}}">{{.Title}}</a> {{end}}</nav>
<main>{{.Body}}</main></body></html>
`))

// handleDocs serves a help topic as HTML. Without a topic it serves the grid overview.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if topic == "" {
		topic = "grid"
	}
	md, ok := docs.Get(topic)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown topic: " + topic, Code: "not_found"})
		return
	}
	list := docs.List()
	title := topic
	for _, t := range list {
		if strings.EqualFold(t.Name, strings.TrimSpace(topic)) {
			title = t.Title
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = docsPage.Execute(w, map[string]any{
		"Title":  title,
		"Topics": list,
		"Body":   renderMarkdownHTML(md),
	})
}
