// Package server renders templates over HTTP in the locale the client asks
// for.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/grahms/markupmsg"
)

var pageNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]*$`)

// Config holds the server dependencies.
type Config struct {
	Addr      string
	Templates fs.FS // <page>.html files
	Engine    *markupmsg.Engine
	// Bundle is used for locale negotiation; nil renders every page in the
	// engine's default locale.
	Bundle   *markupmsg.Bundle
	Logger   zerolog.Logger
	Gatherer prometheus.Gatherer
}

// Server serves rendered pages. Parsed templates are cached; pages are built
// per request.
type Server struct {
	cfg Config

	mu    sync.RWMutex
	cache map[string]*markupmsg.Markup
}

// New validates cfg and returns a server.
func New(cfg Config) (*Server, error) {
	if cfg.Templates == nil {
		return nil, errors.New("templates filesystem is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{cfg: cfg, cache: map[string]*markupmsg.Markup{}}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.cfg.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/render/{page}", s.render)
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	if !pageNameRe.MatchString(name) {
		http.NotFound(w, r)
		return
	}

	m, err := s.markup(name)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, r, name, err)
		return
	}

	locale := s.locale(r)
	var buf bytes.Buffer
	if err := s.cfg.Engine.NewPage(name, m, locale).Render(&buf); err != nil {
		s.fail(w, r, name, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", locale.String())
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, name string, err error) {
	s.cfg.Logger.Error().
		Err(err).
		Str("page", name).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("render failed")
	http.Error(w, "template error", http.StatusInternalServerError)
}

// markup returns the parsed template, parsing it on first use.
func (s *Server) markup(name string) (*markupmsg.Markup, error) {
	s.mu.RLock()
	m, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	f, err := s.cfg.Templates.Open(name + ".html")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err = s.cfg.Engine.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s.html: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = m
	s.mu.Unlock()
	return m, nil
}

// locale picks the page locale: ?lang= first, then Accept-Language.
func (s *Server) locale(r *http.Request) language.Tag {
	fallback := s.cfg.Engine.Settings().Locale()
	if s.cfg.Bundle == nil {
		return fallback
	}
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			return s.cfg.Bundle.Match(tag)
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		return s.cfg.Bundle.MatchAcceptLanguage(header)
	}
	return s.cfg.Bundle.Match(fallback)
}
