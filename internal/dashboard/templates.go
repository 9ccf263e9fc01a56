package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/2beens/stravalens/pkg"

	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	return tmpl, nil
}

func (h *Handler) render(w http.ResponseWriter, statusCode int, templateName string, data any) {
	w.Header().Set("Content-Type", pkg.ContentType.HTML)
	w.WriteHeader(statusCode)
	if err := h.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Errorf("failed to render template %s: %s", templateName, err)
	}
}
