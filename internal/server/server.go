package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lcdkit/internal/rating"
	"lcdkit/internal/session"
)

// Options configures a Server.
type Options struct {
	// HiddenStrategies are left out of checklist reports.
	HiddenStrategies []string
	// Vocabulary selects the rating options offered to clients.
	Vocabulary rating.Vocabulary
	// RequestLog enables chi's request logger.
	RequestLog bool
	// Log receives operator messages; stderr when nil.
	Log io.Writer
}

// Server exposes one session over a JSON API. Every request holds the
// session lock for its whole duration.
type Server struct {
	mu     sync.Mutex
	sess   *session.Session
	hidden []string
	vocab  rating.Vocabulary
	logw   io.Writer
	router *chi.Mux
}

// New builds the router for sess.
func New(sess *session.Session, opts Options) *Server {
	s := &Server{
		sess:   sess,
		hidden: opts.HiddenStrategies,
		vocab:  opts.Vocabulary,
		logw:   opts.Log,
		router: chi.NewRouter(),
	}
	if s.logw == nil {
		s.logw = os.Stderr
	}
	if opts.RequestLog {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/taxonomy", s.locked(s.handleTaxonomy))
		r.Get("/questions/{subStrategyID}", s.locked(s.handleQuestions))

		r.Get("/checklists/{concept}", s.locked(s.handleChecklist))
		r.Put("/checklists/{concept}/level", s.locked(s.handleChecklistLevel))
		r.Put("/checklists/{concept}/ratings", s.locked(s.handleRating))
		r.Delete("/checklists/{concept}", s.locked(s.handleResetConcept))
		r.Get("/radar", s.locked(s.handleRadar))

		r.Get("/priorities", s.locked(s.handlePriorities))
		r.Put("/priorities", s.locked(s.handleSetPriority))

		r.Get("/project", s.locked(s.handleProject))
		r.Put("/project", s.locked(s.handleSetProject))

		r.Get("/ideas", s.locked(s.handleIdeas))
		r.Post("/ideas", s.locked(s.handleAddIdea))
		r.Put("/ideas/{id}", s.locked(s.handleUpdateIdea))
		r.Delete("/ideas/{id}", s.locked(s.handleDeleteIdea))

		r.Put("/insights/{strategyID}", s.locked(s.handleSetInsight))

		r.Post("/reset/{section}", s.locked(s.handleResetSection))
		r.Post("/reset", s.locked(s.handleResetAll))

		r.Get("/report.json", s.locked(s.handleReportJSON))
		r.Get("/report.xlsx", s.locked(s.handleReportXLSX))
		r.Get("/report.md", s.locked(s.handleReportMarkdown))
		r.Get("/report.html", s.locked(s.handleReportHTML))
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(s.logw, "lcdkit api listening on %s\n", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) locked(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(w, r)
	}
}
