// Package server is the embedded web view over the moderation service:
// the pending queue, article detail with publish/reject actions, and
// source and keyword management.
package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"newsdesk/internal/database"
	"newsdesk/internal/moderation"
	"newsdesk/internal/scheduler"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// pageSize is how many pending articles one queue page shows.
const pageSize = 10

// Server is the moderation web UI.
type Server struct {
	svc       *moderation.Service
	imagesDir string
	pages     map[string]*template.Template
	mux       *http.ServeMux
}

// New creates a server over the moderation service. imagesDir, when
// non-empty, is served under /images/ for generated illustrations.
func New(svc *moderation.Service, imagesDir string) (*Server, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"join": strings.Join,
		"base": filepath.Base,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the
	// clone. This gives each page its own {{define "content"}} and
	// {{define "title"}}.
	pageNames := []string{"index.html", "article.html", "sources.html", "keywords.html"}
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

	s := &Server{svc: svc, imagesDir: imagesDir, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	if s.imagesDir != "" {
		s.mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.imagesDir))))
	}

	// Routes
	s.mux.HandleFunc("/", s.withAuth(s.handleIndex))
	s.mux.HandleFunc("/article/", s.withAuth(s.handleArticle))
	s.mux.HandleFunc("/sweep", s.withAuth(s.handleSweep))
	s.mux.HandleFunc("/sources", s.withAuth(s.handleSources))
	s.mux.HandleFunc("/sources/add", s.withAuth(s.handleAddSource))
	s.mux.HandleFunc("/sources/", s.withAuth(s.handleSourceAction))
	s.mux.HandleFunc("/keywords", s.withAuth(s.handleKeywords))
	s.mux.HandleFunc("/keywords/add", s.withAuth(s.handleAddKeyword))
	s.mux.HandleFunc("/keywords/remove", s.withAuth(s.handleRemoveKeyword))
}

// withAuth runs the moderation authorization gate on the bearer token.
// A service configured without a token lets everything through.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if err := s.svc.Authorize(token); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	articles, total, err := s.svc.ListPending(page, pageSize)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	stats, _ := s.svc.Stats()

	totalPages := (total + pageSize - 1) / pageSize
	s.render(w, "index.html", map[string]any{
		"Articles":   articles,
		"Total":      total,
		"Page":       page,
		"TotalPages": totalPages,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
		"HasPrev":    page > 1,
		"HasNext":    page < totalPages,
		"Stats":      stats,
	})
}

// handleArticle serves /article/{id} (GET detail) and
// /article/{id}/{action} (POST publish, reject, delete, rewrite, image).
func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/article/")
	parts := strings.SplitN(path, "/", 2)

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		s.showArticle(w, r, id)
		return
	}
	if r.Method != http.MethodPost {
		http.Redirect(w, r, fmt.Sprintf("/article/%d", id), http.StatusFound)
		return
	}
	s.articleAction(w, r, id, parts[1])
}

func (s *Server) showArticle(w http.ResponseWriter, r *http.Request, id int64) {
	article, err := s.svc.GetArticle(id)
	if errors.Is(err, database.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "article.html", map[string]any{
		"Article": article,
	})
}

func (s *Server) articleAction(w http.ResponseWriter, r *http.Request, id int64, action string) {
	var err error
	switch action {
	case "publish":
		err = s.svc.Publish(id)
	case "reject":
		err = s.svc.Reject(id)
	case "delete":
		err = s.svc.DeleteArticle(id)
	case "rewrite":
		_, err = s.svc.Rewrite(r.Context(), id)
	case "image":
		_, err = s.svc.GenerateImage(r.Context(), id)
	default:
		http.NotFound(w, r)
		return
	}

	switch {
	case errors.Is(err, database.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, database.ErrNotPending):
		http.Error(w, "Article is no longer pending", http.StatusConflict)
		return
	case err != nil:
		log.Printf("article action %s on %d: %v", action, id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch action {
	case "rewrite", "image":
		http.Redirect(w, r, fmt.Sprintf("/article/%d", id), http.StatusFound)
	default:
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if _, err := s.svc.ForceSweep(r.Context()); err != nil {
		if errors.Is(err, scheduler.ErrBusy) {
			http.Error(w, "A sweep is already running", http.StatusConflict)
			return
		}
		log.Printf("manual sweep: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.svc.ListSources(false)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "sources.html", map[string]any{
		"Sources": sources,
	})
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/sources", http.StatusFound)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	url := strings.TrimSpace(r.FormValue("url"))
	typ := database.SourceType(strings.TrimSpace(r.FormValue("type")))

	if name != "" && url != "" {
		if _, err := s.svc.AddSource(name, url, typ); err != nil {
			log.Printf("adding source %s: %v", name, err)
		}
	}

	http.Redirect(w, r, "/sources", http.StatusFound)
}

func (s *Server) handleSourceAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/sources", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/sources/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		http.Redirect(w, r, "/sources", http.StatusFound)
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Redirect(w, r, "/sources", http.StatusFound)
		return
	}

	switch parts[1] {
	case "toggle":
		if err := s.svc.ToggleSource(id); err != nil {
			log.Printf("toggling source %d: %v", id, err)
		}
	case "delete":
		if err := s.svc.DeleteSource(id); err != nil {
			log.Printf("deleting source %d: %v", id, err)
		}
	}

	http.Redirect(w, r, "/sources", http.StatusFound)
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := s.svc.ListKeywords()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "keywords.html", map[string]any{
		"Keywords": keywords,
	})
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if word := strings.TrimSpace(r.FormValue("keyword")); word != "" {
			s.svc.AddKeyword(word)
		}
	}
	http.Redirect(w, r, "/keywords", http.StatusFound)
}

func (s *Server) handleRemoveKeyword(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if word := strings.TrimSpace(r.FormValue("keyword")); word != "" {
			s.svc.RemoveKeyword(word)
		}
	}
	http.Redirect(w, r, "/keywords", http.StatusFound)
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

// Serve starts the HTTP server on the given port.
func Serve(svc *moderation.Service, imagesDir string, port int) error {
	srv, err := New(svc, imagesDir)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
