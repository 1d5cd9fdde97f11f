package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	proposalengine "arcane/contexts/governance/proposal-engine"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "arcane/internal/platform/httpserver/docs"
)

const (
	maxRequestBytes = 1 << 20
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	governance proposalengine.Module
	tokens     TokenVerifier
}

func New(
	governance proposalengine.Module,
	tokens TokenVerifier,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		governance: governance,
		tokens:     tokens,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the routed mux, mainly for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/proposals", s.handleCreateProposal)
	s.mux.HandleFunc("GET /v1/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /v1/proposals/counter", s.handleCountProposals)
	s.mux.HandleFunc("GET /v1/proposals/counter/reconcile", s.handleReconcileCounter)
	s.mux.HandleFunc("POST /v1/proposals/close-elapsed", s.handleCloseElapsed)
	s.mux.HandleFunc("GET /v1/proposals/by-owner/{address_id}", s.handleListProposalsByOwner)
	s.mux.HandleFunc("GET /v1/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("PUT /v1/proposals/{proposal_id}/status", s.handleChangeStatus)
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/votes/withdraw", s.handleWithdrawVote)
	s.mux.HandleFunc("GET /v1/proposals/{proposal_id}/votes/{address_id}", s.handleGetVoter)

	s.mux.HandleFunc("POST /v1/addresses", s.handleRegisterAddress)
	s.mux.HandleFunc("GET /v1/addresses/admins", s.handleListAdmins)
	s.mux.HandleFunc("GET /v1/addresses/lookup", s.handleGetAddressByWallet)
	s.mux.HandleFunc("GET /v1/addresses/{address_id}", s.handleGetAddress)
	s.mux.HandleFunc("GET /v1/addresses/{address_id}/votes", s.handleListVotesByAddress)
	s.mux.HandleFunc("PUT /v1/addresses/{address_id}/role", s.handleChangeAddressRole)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON rejects unknown fields and trailing data. On failure it has
// already written the response.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return s.decodeBody(w, r, dst, false)
}

// decodeOptionalJSON also accepts an empty body and leaves dst untouched.
func (s *Server) decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return s.decodeBody(w, r, dst, true)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	if decoder.More() {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must hold a single JSON object")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
