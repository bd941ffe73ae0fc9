package site

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var formTemplate = template.Must(template.New("form.html").ParseFS(templateFS, "templates/form.html"))
