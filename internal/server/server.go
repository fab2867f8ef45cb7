package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"

	"shownotes/internal/models"
)

const robotsTxt = "User-agent: *\nAllow: /"

// EpisodeQuerier abstracts the episode queries for the HTTP handlers.
type EpisodeQuerier interface {
	ListPublished(ctx context.Context) ([]models.Episode, error)
	Get(ctx context.Context, id string) (models.Episode, bool, error)
	Sparse(ctx context.Context, id string) (models.Sparse, error)
	SickPicks(ctx context.Context) ([]models.SickPick, error)
}

type serverHandler struct {
	shows  EpisodeQuerier
	logger lgr.L
}

// New creates the HTTP handler that exposes the episode API and robots.txt.
func New(shows EpisodeQuerier, logger lgr.L) http.Handler {
	if logger == nil {
		logger = lgr.Default()
	}

	h := &serverHandler{shows: shows, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/robots.txt", h.handleRobots)
	mux.HandleFunc("/api/shows", h.handleShows)
	mux.HandleFunc("/api/shows/sparse", h.handleSparse)
	mux.HandleFunc("/api/shows/{id}", h.handleShow)
	mux.HandleFunc("/api/sickpicks", h.handleSickPicks)

	return logRequests(mux, logger)
}

func (h *serverHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *serverHandler) handleRobots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf8")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	if _, err := w.Write([]byte(robotsTxt)); err != nil {
		h.logger.Logf("[WARN] failed to write robots.txt: %v", err)
	}
}

func (h *serverHandler) handleShows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	episodes, err := h.shows.ListPublished(r.Context())
	if err != nil {
		h.writeQueryError(w, "list shows", err)
		return
	}
	h.writeJSON(w, http.StatusOK, episodes)
}

func (h *serverHandler) handleShow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	episode, ok, err := h.shows.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeQueryError(w, "get show", err)
		return
	}
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": models.ErrNotFound.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, episode)
}

func (h *serverHandler) handleSparse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sparse, err := h.shows.Sparse(r.Context(), r.URL.Query().Get("number"))
	if err != nil {
		h.writeQueryError(w, "sparse shows", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sparse)
}

func (h *serverHandler) handleSickPicks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	picks, err := h.shows.SickPicks(r.Context())
	if err != nil {
		h.writeQueryError(w, "sick picks", err)
		return
	}
	h.writeJSON(w, http.StatusOK, picks)
}

func (h *serverHandler) writeQueryError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, models.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		h.logger.Logf("[ERROR] %s: %v", op, err)
	}
	h.writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}

func (h *serverHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Logf("[WARN] failed to encode response: %v", err)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func logRequests(next http.Handler, logger lgr.L) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		logger.Logf("[DEBUG] %s %s -> %d (%dB) in %s", r.Method, r.URL.Path, sw.status, sw.size, time.Since(start))
	})
}
