package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	governancehttp "arcane/contexts/governance/proposal-engine/transport/http"
)

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// writeGovernanceDomainError checks the specific not-found sentinels before
// ErrNotFound, which they all wrap.
func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrAddressNotRegistered):
		writeGovernanceError(w, http.StatusNotFound, "address_not_registered", err.Error())
	case errors.Is(err, domainerrors.ErrProposalNotFound):
		writeGovernanceError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrVoterNotFound):
		writeGovernanceError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrNotFound):
		writeGovernanceError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domainerrors.ErrUnauthorized):
		writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domainerrors.ErrForbidden):
		writeGovernanceError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeGovernanceError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrAddressAlreadyRegistered):
		writeGovernanceError(w, http.StatusConflict, "address_already_registered", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidChoiceKey):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "invalid_choice_key", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidStatus):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "invalid_status", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidRole):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "invalid_role", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidInput):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domainerrors.ErrMetadataUnavailable):
		writeGovernanceError(w, http.StatusBadGateway, "metadata_unavailable", "proposal metadata could not be resolved")
	case errors.Is(err, domainerrors.ErrEpochUnavailable):
		writeGovernanceError(w, http.StatusServiceUnavailable, "epoch_unavailable", "current epoch could not be read")
	case errors.Is(err, domainerrors.ErrTransactionFailed):
		writeGovernanceError(w, http.StatusInternalServerError, "transaction_failed", "transaction outcome unknown; re-read before retrying")
	default:
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	value, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || value <= 0 {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
		return 0, false
	}
	return value, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_"+name, name+" must be an integer")
		return 0, false
	}
	return value, true
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req governancehttp.CreateProposalRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.CreateProposalHandler(r.Context(), claims.AddressID, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ListProposalsHandler(r.Context(), page, limit, r.URL.Query().Get("status"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCountProposals(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.CountByStatusesHandler(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReconcileCounter(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.ReconcileCounterHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseElapsed(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	var req governancehttp.CloseElapsedRequest
	if !s.decodeOptionalJSON(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.CloseElapsedHandler(r.Context(), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProposalsByOwner(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	ownerID, ok := pathID(w, r, "address_id")
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ListProposalsByOwnerHandler(r.Context(), ownerID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	proposalID, ok := pathID(w, r, "proposal_id")
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetProposalHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	proposalID, ok := pathID(w, r, "proposal_id")
	if !ok {
		return
	}
	var req governancehttp.ChangeStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.ChangeStatusHandler(r.Context(), proposalID, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	proposalID, ok := pathID(w, r, "proposal_id")
	if !ok {
		return
	}
	var req governancehttp.CastVoteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.CastVoteHandler(r.Context(), claims.AddressID, proposalID, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleWithdrawVote(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	proposalID, ok := pathID(w, r, "proposal_id")
	if !ok {
		return
	}
	resp, err := s.governance.Handler.WithdrawVoteHandler(r.Context(), claims.AddressID, proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVoter(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	proposalID, ok := pathID(w, r, "proposal_id")
	if !ok {
		return
	}
	addressID, ok := pathID(w, r, "address_id")
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetVoterHandler(r.Context(), proposalID, addressID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterAddress(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	var req governancehttp.RegisterAddressRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.RegisterAddressHandler(r.Context(), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.ListAdminsHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAddressByWallet(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.GetAddressByWalletHandler(r.Context(), r.URL.Query().Get("wallet"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	addressID, ok := pathID(w, r, "address_id")
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetAddressHandler(r.Context(), addressID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVotesByAddress(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCaller(w, r); !ok {
		return
	}
	addressID, ok := pathID(w, r, "address_id")
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ListVotesByAddressHandler(r.Context(), addressID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeAddressRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	addressID, ok := pathID(w, r, "address_id")
	if !ok {
		return
	}
	var req governancehttp.ChangeRoleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.ChangeAddressRoleHandler(r.Context(), addressID, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
