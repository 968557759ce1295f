// Package http exposes the transfer orchestrator over a small JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/logging"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/ports"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/transfer"
)

// Server wires the orchestrator to HTTP. Each request binds a fresh
// orchestrator to the addressed session; concurrent requests for the same
// session ID are the caller's contract, not the server's.
type Server struct {
	store    ports.SessionStore
	adapter  ports.ChainAdapter
	logger   *slog.Logger
	listener transfer.Listener
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithListener attaches a listener (e.g. the metrics observer) to every
// orchestrator the server constructs.
func WithListener(fn transfer.Listener) Option {
	return func(s *Server) {
		s.listener = fn
	}
}

// NewHandler creates the HTTP handler for the bridge API.
func NewHandler(store ports.SessionStore, adapter ports.ChainAdapter, opts ...Option) http.Handler {
	s := &Server{
		store:   store,
		adapter: adapter,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/transfers", func(r chi.Router) {
		r.Post("/", s.createTransfer)
		r.Get("/", s.listTransfers)
		r.Get("/{id}", s.getTransfer)
		r.Post("/{id}/execute", s.executeTransfer)
		r.Post("/{id}/cancel", s.cancelTransfer)
	})
	return r
}

type createTransferRequest struct {
	Mode               domain.Mode `json:"mode"`
	Amount             string      `json:"amount"`
	DestinationAddress string      `json:"destination_address"`
	UsePaymaster       bool        `json:"use_paymaster,omitempty"`
	Execute            bool        `json:"execute,omitempty"`
}

func (s *Server) orchestratorOpts() []transfer.Option {
	opts := []transfer.Option{transfer.WithLogger(s.logger)}
	if s.listener != nil {
		opts = append(opts, transfer.WithListener(s.listener))
	}
	return opts
}

func (s *Server) createTransfer(w http.ResponseWriter, r *http.Request) {
	var body createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Amount == "" || body.DestinationAddress == "" {
		http.Error(w, "amount and destination_address are required", http.StatusBadRequest)
		return
	}

	opts := s.orchestratorOpts()
	if body.UsePaymaster {
		opts = append(opts, transfer.WithPaymaster())
	}

	o, err := transfer.Create(r.Context(), s.store, s.adapter, body.Mode, body.Amount, body.DestinationAddress, opts...)
	if err != nil {
		http.Error(w, fmt.Sprintf("Create error: %v", err), http.StatusBadRequest)
		return
	}

	snapshot := o.State()
	status := http.StatusCreated
	if body.Execute {
		snapshot, err = o.Execute(r.Context())
		if err != nil {
			s.logger.Warn("cleanup failed after execute", "session_id", o.ID(), "err", err)
		}
		status = http.StatusOK
	}

	s.writeJSON(w, status, snapshot)
}

func (s *Server) listTransfers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) getTransfer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := s.store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) executeTransfer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := transfer.Resume(r.Context(), s.store, s.adapter, id, s.orchestratorOpts()...)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Resume error: %v", err), http.StatusInternalServerError)
		return
	}

	snapshot, err := o.Execute(r.Context())
	if err != nil {
		s.logger.Warn("cleanup failed after execute", "session_id", id, "err", err)
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) cancelTransfer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := transfer.Resume(r.Context(), s.store, s.adapter, id, s.orchestratorOpts()...)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Resume error: %v", err), http.StatusInternalServerError)
		return
	}

	if err := o.Cancel(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Cancel error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, o.State())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "err", err)
	}
}
