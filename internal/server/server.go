// Package server serves the latest run report over HTTP: an HTML view,
// the raw JSON, and a CSV download.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/fwehrle/newslens/internal/export"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for a run report. The report file is re-read
// per request so a fresh run shows up without a restart.
type Server struct {
	reportPath string
	pages      map[string]*template.Template
	mux        *http.ServeMux
}

// New creates a server for the report at reportPath.
func New(reportPath string) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"percent": func(part, total int) int {
			if total == 0 {
				return 0
			}
			return part * 100 / total
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	pageNames := []string{"report.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{reportPath: reportPath, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleReport)
	s.mux.HandleFunc("/report.json", s.handleJSON)
	s.mux.HandleFunc("/export.csv", s.handleCSV)
}

func (s *Server) loadReport(w http.ResponseWriter) *export.Report {
	report, err := export.LoadReport(s.reportPath)
	if err != nil {
		log.Printf("Loading report: %v", err)
		http.Error(w, "No report available. Run an analysis first.", http.StatusNotFound)
		return nil
	}
	return report
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	report := s.loadReport(w)
	if report == nil {
		return
	}

	s.render(w, "report.html", map[string]any{
		"Report": report,
	})
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	report := s.loadReport(w)
	if report == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		log.Printf("Encoding report: %v", err)
	}
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	report := s.loadReport(w)
	if report == nil {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="news_analysis.csv"`)
	if err := export.WriteCSV(w, report.Articles); err != nil {
		log.Printf("Writing CSV: %v", err)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(reportPath string, port int) error {
	srv, err := New(reportPath)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
