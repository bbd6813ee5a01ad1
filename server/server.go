// Package server exposes the article pipeline over HTTP: trigger a run,
// list saved articles, and preview one rendered to HTML.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"ai_article_writer/publish"
	"ai_article_writer/storage"
)

// generateTimeout bounds one full pipeline run triggered over HTTP. Draft
// generation alone may take several minutes per model attempt.
const generateTimeout = 15 * time.Minute

type Server struct {
	pub    *publish.Publisher
	files  *storage.FileStore
	prompt string
	md     goldmark.Markdown
	logger *log.Logger
}

func New(pub *publish.Publisher, files *storage.FileStore, prompt string) (*Server, error) {
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if files == nil {
		return nil, errors.New("file store required")
	}
	return &Server{
		pub:    pub,
		files:  files,
		prompt: prompt,
		md:     goldmark.New(),
		logger: log.Default(),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/articles", s.handleArticleList)
	mux.HandleFunc("/api/articles/", s.handleArticleByName)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type generateReq struct {
	Prompt string `json:"prompt,omitempty"`
}

type generateResp struct {
	RunID     string `json:"run_id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Path      string `json:"path"`
	SizeBytes int    `json:"size_bytes"`
	DBStatus  string `json:"db_status"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req generateReq
	// An empty body means "use the configured prompt".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = s.prompt
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	report, err := s.pub.PublishOnce(ctx, prompt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, generateResp{
		RunID:     report.RunID,
		Title:     report.Title,
		Slug:      report.Slug,
		Path:      report.Path,
		SizeBytes: report.SizeBytes,
		DBStatus:  string(report.DBStatus),
	})
}

func (s *Server) handleArticleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names, err := s.files.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, map[string][]string{"articles": names})
}

func (s *Server) handleArticleByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/articles/")
	raw, err := s.files.Read(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := s.md.Convert(stripFrontMatter(raw), &buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><body>%s</body></html>", buf.String())
}

// stripFrontMatter drops the leading --- header block before rendering.
func stripFrontMatter(raw []byte) []byte {
	const delim = "---\n"
	s := string(raw)
	if !strings.HasPrefix(s, delim) {
		return raw
	}
	rest := s[len(delim):]
	end := strings.Index(rest, delim)
	if end < 0 {
		return raw
	}
	return []byte(strings.TrimLeft(rest[end+len(delim):], "\n"))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("[http] %s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
