package workflow

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/app.css
var appCSS []byte

//go:embed static/app.js
var appJS []byte

// pageTemplates holds the three workflow pages, parsed once at startup
var pageTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))
