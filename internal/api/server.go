// Package api serves configured booru services over a small local JSON API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"codeberg.org/snonux/nori/internal/catalog"
	"codeberg.org/snonux/nori/internal/client"
	"codeberg.org/snonux/nori/internal/log"
	"codeberg.org/snonux/nori/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Services resolves service names to clients
type Services interface {
	List(ctx context.Context) ([]client.Settings, error)
	Client(ctx context.Context, name string) (client.SearchClient, error)
}

// Server is the HTTP front end
type Server struct {
	services Services
	filters  session.Filters
	logger   zerolog.Logger
	router   chi.Router
}

// NewServer creates a server whose search results are filtered with filters
func NewServer(services Services, filters session.Filters, logger zerolog.Logger) *Server {
	s := &Server{
		services: services,
		filters:  filters,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(log.HTTPMiddleware(logger))
	r.Get("/healthz", s.health)
	r.Route("/services", func(r chi.Router) {
		r.Get("/", s.listServices)
		r.Get("/{name}/search", s.search)
		r.Get("/{name}/default-query", s.defaultQuery)
	})
	s.router = r
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

type serviceJSON struct {
	Name           string         `json:"name"`
	APIType        client.APIType `json:"api_type"`
	Endpoint       string         `json:"endpoint"`
	HasCredentials bool           `json:"has_credentials"`
}

type queryJSON struct {
	Query string `json:"query"`
}

type httpError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Kind    string `json:"kind,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	e := httpError{}
	e.Error.Code = code
	e.Error.Message = msg
	writeJSON(w, status, e)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.services.List(r.Context())
	if err != nil {
		l := log.Ctx(r.Context())
		l.Error().Err(err).Msg("listing services failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list services")
		return
	}

	out := make([]serviceJSON, 0, len(services))
	for _, svc := range services {
		out = append(out, serviceJSON{
			Name:           svc.Name,
			APIType:        svc.APIType,
			Endpoint:       svc.Endpoint,
			HasCredentials: svc.HasCredentials(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.client(w, r)
	if !ok {
		return
	}

	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "page must be a non-negative integer")
			return
		}
		page = n
	}

	tags := r.URL.Query().Get("tags")
	result, err := sc.Search(r.Context(), tags, page)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}

	s.filters.Apply(result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) defaultQuery(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.client(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, queryJSON{Query: sc.DefaultQuery()})
}

func (s *Server) client(w http.ResponseWriter, r *http.Request) (client.SearchClient, bool) {
	name := chi.URLParam(r, "name")
	sc, err := s.services.Client(r.Context(), name)
	if errors.Is(err, catalog.ErrUnknownService) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown service "+strconv.Quote(name))
		return nil, false
	}
	if err != nil {
		l := log.Ctx(r.Context())
		l.Error().Err(err).Str(log.FieldService, name).Msg("building client failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return nil, false
	}
	return sc, true
}

func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	e := httpError{}
	e.Error.Code = "UPSTREAM"
	e.Error.Message = err.Error()

	var se *client.SearchError
	if errors.As(err, &se) {
		e.Error.Kind = se.Kind.String()
	}
	l := log.Ctx(r.Context())
	l.Warn().Err(err).Msg("upstream search failed")
	writeJSON(w, http.StatusBadGateway, e)
}
