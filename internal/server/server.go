// Package server exposes crawls over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	linkgraph "github.com/will-x86/linkgraph"
	"github.com/will-x86/linkgraph/logger"
	"github.com/will-x86/linkgraph/runner"
	"github.com/will-x86/linkgraph/storage"
)

type Options struct {
	Logger        logger.Logger
	DefaultDepth  int
	MaxDepthLimit int
	// DevMode adds stack traces to 500 responses.
	DevMode bool
}

// Server exposes the crawl API. Crawls may overlap; a cache reset waits for
// running crawls and blocks new ones until the registry is cleared.
type Server struct {
	runner    runner.Runner
	snapshots storage.Storage
	opts      Options
	logger    logger.Logger
	mux       *http.ServeMux
	resetMu   sync.RWMutex
}

type crawlRequest struct {
	URL   string `json:"url"`
	Depth *int   `json:"depth"`
	Reset bool   `json:"reset"`
}

func NewServer(r runner.Runner, snapshots storage.Storage, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewStdLogger()
	}
	if snapshots == nil {
		snapshots = storage.NewMemoryStorage()
	}

	s := &Server{
		runner:    r,
		snapshots: snapshots,
		opts:      opts,
		logger:    opts.Logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.recoverer(s.mux).ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/crawl", s.handleCrawl)
	s.mux.HandleFunc("/api/cache/reset", s.handleCacheReset)
	s.mux.HandleFunc("/api/cache", s.handleCache)
	s.mux.HandleFunc("/api/crawls/", s.handleCrawlByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var (
		req crawlRequest
		err error
	)
	switch r.Method {
	case http.MethodGet:
		req, err = parseCrawlQuery(r)
	case http.MethodPost:
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			err = fmt.Errorf("invalid json payload: %w", err)
		}
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	depth := s.opts.DefaultDepth
	if req.Depth != nil {
		depth = *req.Depth
	}
	if depth < 0 || depth > s.opts.MaxDepthLimit {
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("%w: depth must be between 0 and %d", linkgraph.ErrInvalidDepth, s.opts.MaxDepthLimit))
		return
	}
	if _, err := linkgraph.NormalizeURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Reset {
		if err := s.reset(r); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	result, err := s.crawl(r, req.URL, depth)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, linkgraph.ErrInvalidURL) || errors.Is(err, linkgraph.ErrInvalidDepth) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	if err := s.snapshots.Set(result.ID, result.Graph); err != nil {
		s.logger.Warn("Failed to store snapshot of crawl %s: %v", result.ID, err)
	}

	w.Header().Set("X-Crawl-ID", result.ID)
	writeJSON(w, http.StatusOK, result.Graph)
}

func (s *Server) crawl(r *http.Request, seed string, depth int) (*runner.CrawlResult, error) {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()
	return s.runner.Crawl(r.Context(), seed, depth)
}

func parseCrawlQuery(r *http.Request) (crawlRequest, error) {
	q := r.URL.Query()
	req := crawlRequest{URL: q.Get("url")}

	if raw := q.Get("depth"); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: %q", linkgraph.ErrInvalidDepth, raw)
		}
		req.Depth = &depth
	}
	if raw := q.Get("reset"); raw != "" {
		reset, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("invalid reset flag %q", raw)
		}
		req.Reset = reset
	}
	return req, nil
}

func (s *Server) handleCacheReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	s.writeReset(w, r)
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	s.writeReset(w, r)
}

func (s *Server) writeReset(w http.ResponseWriter, r *http.Request) {
	if err := s.reset(r); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) reset(r *http.Request) error {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()
	return s.runner.Reset(r.Context())
}

func (s *Server) handleCrawlByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/crawls/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	graph, err := s.snapshots.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("crawl %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			stack := debug.Stack()
			s.logger.Error("Panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, stack)

			body := map[string]string{"error": fmt.Sprint(rec)}
			if s.opts.DevMode {
				body["stack"] = string(stack)
			}
			writeJSON(w, http.StatusInternalServerError, body)
		}()
		next.ServeHTTP(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
