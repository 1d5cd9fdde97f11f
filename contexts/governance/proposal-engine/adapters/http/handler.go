package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"arcane/contexts/governance/proposal-engine/application/commands"
	"arcane/contexts/governance/proposal-engine/application/queries"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
	httptransport "arcane/contexts/governance/proposal-engine/transport/http"
)

// Handler maps transport DTOs onto the lifecycle engine. Caller ids arrive
// already authenticated.
type Handler struct {
	Lifecycle commands.LifecycleUseCase
	Proposals queries.ProposalQueryUseCase
	Addresses queries.AddressQueryUseCase
	Epochs    ports.EpochSource
	Logger    *slog.Logger
}

// CreateProposalHandler godoc
// @Summary Create proposal
// @Description Resolves metadata, then creates a pending proposal owned by the caller.
// @Tags governance-proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.CreateProposalRequest true "Proposal payload"
// @Success 201 {object} httptransport.ProposalResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /v1/proposals [post]
func (h Handler) CreateProposalHandler(
	ctx context.Context,
	ownerID int64,
	req httptransport.CreateProposalRequest,
) (httptransport.ProposalResponse, error) {
	proposal, err := h.Lifecycle.CreateProposal(ctx, commands.CreateProposalCommand{
		OwnerID:          ownerID,
		StartEpoch:       req.StartEpoch,
		EndEpoch:         req.EndEpoch,
		MetadataRef:      req.Metadata,
		ComponentAddress: req.ComponentAddress,
		ChoiceKeys:       req.Votes,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

// CastVoteHandler godoc
// @Summary Cast vote
// @Description Records the caller's single vote and adds it to both tally metrics.
// @Tags governance-votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param proposal_id path int true "Proposal id"
// @Param request body httptransport.CastVoteRequest true "Vote payload"
// @Success 201 {object} httptransport.VoterResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/proposals/{proposal_id}/votes [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	addressID int64,
	proposalID int64,
	req httptransport.CastVoteRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Lifecycle.CastVote(ctx, commands.CastVoteCommand{
		AddressID:   addressID,
		ProposalID:  proposalID,
		Choice:      req.Selected,
		TokenAmount: req.Amount,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

// WithdrawVoteHandler godoc
// @Summary Withdraw vote
// @Tags governance-votes
// @Produce json
// @Security BearerAuth
// @Param proposal_id path int true "Proposal id"
// @Success 200 {object} httptransport.VoterResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/proposals/{proposal_id}/votes/withdraw [post]
func (h Handler) WithdrawVoteHandler(ctx context.Context, addressID int64, proposalID int64) (httptransport.VoterResponse, error) {
	voter, err := h.Lifecycle.WithdrawVote(ctx, commands.WithdrawVoteCommand{
		AddressID:  addressID,
		ProposalID: proposalID,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

// ChangeStatusHandler godoc
// @Summary Change proposal status
// @Description Admin only. Moves the proposal and the status counter together.
// @Tags governance-proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param proposal_id path int true "Proposal id"
// @Param request body httptransport.ChangeStatusRequest true "Target status"
// @Success 200 {object} httptransport.ProposalResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/proposals/{proposal_id}/status [put]
func (h Handler) ChangeStatusHandler(
	ctx context.Context,
	proposalID int64,
	req httptransport.ChangeStatusRequest,
) (httptransport.ProposalResponse, error) {
	proposal, err := h.Lifecycle.ChangeStatus(ctx, commands.ChangeStatusCommand{
		ProposalID: proposalID,
		Status:     req.Status,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

// CloseElapsedHandler godoc
// @Summary Close elapsed proposals
// @Description Admin only. Closes every pending or active proposal whose end epoch has passed.
// @Tags governance-proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.CloseElapsedRequest false "Epoch override and batch limit"
// @Success 200 {object} httptransport.CloseElapsedResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/proposals/close-elapsed [post]
//
// CloseElapsedHandler uses the ledger's current epoch unless the request
// pins one.
func (h Handler) CloseElapsedHandler(
	ctx context.Context,
	req httptransport.CloseElapsedRequest,
) (httptransport.CloseElapsedResponse, error) {
	epoch := req.Epoch
	if epoch <= 0 {
		if h.Epochs == nil {
			return httptransport.CloseElapsedResponse{}, domainerrors.ErrEpochUnavailable
		}
		current, err := h.Epochs.CurrentEpoch(ctx)
		if err != nil {
			return httptransport.CloseElapsedResponse{}, err
		}
		epoch = current
	}
	closed, err := h.Lifecycle.CloseElapsedProposals(ctx, epoch, req.Limit)
	if err != nil {
		return httptransport.CloseElapsedResponse{}, err
	}
	return httptransport.CloseElapsedResponse{
		Epoch:  epoch,
		Closed: mapProposals(closed),
	}, nil
}

// ListProposalsHandler godoc
// @Summary List proposals
// @Description Newest first. Total is read from the status counter.
// @Tags governance-proposals
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size (max 100)"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} httptransport.ProposalListResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/proposals [get]
func (h Handler) ListProposalsHandler(
	ctx context.Context,
	page int,
	limit int,
	statuses string,
) (httptransport.ProposalListResponse, error) {
	result, err := h.Proposals.ListProposals(ctx, queries.ListProposalsQuery{
		Page:     page,
		Limit:    limit,
		Statuses: statuses,
	})
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	return httptransport.ProposalListResponse{
		Items: mapProposals(result.Items),
		Page:  result.Page,
		Limit: result.Limit,
		Total: result.Total,
	}, nil
}

// CountByStatusesHandler godoc
// @Summary Count proposals by status
// @Tags governance-proposals
// @Produce json
// @Security BearerAuth
// @Param status query string true "Comma separated statuses"
// @Success 200 {object} httptransport.CounterResponse
// @Router /v1/proposals/counter [get]
func (h Handler) CountByStatusesHandler(ctx context.Context, statuses string) (httptransport.CounterResponse, error) {
	items := make([]string, 0)
	for _, part := range strings.Split(statuses, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	count, err := h.Proposals.CountByStatuses(ctx, items)
	if err != nil {
		return httptransport.CounterResponse{}, err
	}
	return httptransport.CounterResponse{Statuses: items, Count: count}, nil
}

func (h Handler) ReconcileCounterHandler(ctx context.Context) (httptransport.CounterDriftResponse, error) {
	drift, err := h.Proposals.ReconcileCounter(ctx)
	if err != nil {
		return httptransport.CounterDriftResponse{}, err
	}
	return httptransport.CounterDriftResponse{
		Consistent: drift.Consistent(),
		Counter:    counterMap(drift.Counter),
		Actual:     counterMap(drift.Actual),
	}, nil
}

// GetProposalHandler godoc
// @Summary Get proposal detail
// @Tags governance-proposals
// @Produce json
// @Security BearerAuth
// @Param proposal_id path int true "Proposal id"
// @Success 200 {object} httptransport.ProposalDetailResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/proposals/{proposal_id} [get]
func (h Handler) GetProposalHandler(ctx context.Context, proposalID int64) (httptransport.ProposalDetailResponse, error) {
	detail, err := h.Proposals.GetProposalDetail(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalDetailResponse{}, err
	}
	return httptransport.ProposalDetailResponse{
		Proposal: mapProposal(detail.Proposal),
		Owner:    mapAddress(detail.Owner),
		Voters:   mapVoters(detail.Voters),
	}, nil
}

func (h Handler) ListProposalsByOwnerHandler(ctx context.Context, ownerID int64) (httptransport.ProposalListResponse, error) {
	items, err := h.Proposals.ListProposalsByOwner(ctx, ownerID)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	return httptransport.ProposalListResponse{
		Items: mapProposals(items),
		Page:  1,
		Limit: len(items),
		Total: int64(len(items)),
	}, nil
}

func (h Handler) GetVoterHandler(ctx context.Context, proposalID int64, addressID int64) (httptransport.VoterResponse, error) {
	voter, err := h.Proposals.GetVoter(ctx, proposalID, addressID)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) ListVotesByAddressHandler(ctx context.Context, addressID int64) (httptransport.VoterListResponse, error) {
	voters, err := h.Proposals.ListVotesByAddress(ctx, addressID)
	if err != nil {
		return httptransport.VoterListResponse{}, err
	}
	return httptransport.VoterListResponse{Items: mapVoters(voters)}, nil
}

func (h Handler) RegisterAddressHandler(
	ctx context.Context,
	req httptransport.RegisterAddressRequest,
) (httptransport.AddressResponse, error) {
	address, err := h.Lifecycle.RegisterAddress(ctx, commands.RegisterAddressCommand{
		WalletAddress: req.Address,
		Role:          req.Role,
		VaultAddress:  req.VaultAddress,
	})
	if err != nil {
		return httptransport.AddressResponse{}, err
	}
	return mapAddress(address), nil
}

func (h Handler) ChangeAddressRoleHandler(
	ctx context.Context,
	addressID int64,
	req httptransport.ChangeRoleRequest,
) (httptransport.AddressResponse, error) {
	address, err := h.Lifecycle.ChangeAddressRole(ctx, commands.ChangeAddressRoleCommand{
		AddressID: addressID,
		Role:      req.Role,
	})
	if err != nil {
		return httptransport.AddressResponse{}, err
	}
	return mapAddress(address), nil
}

func (h Handler) GetAddressHandler(ctx context.Context, addressID int64) (httptransport.AddressResponse, error) {
	address, err := h.Addresses.GetAddress(ctx, addressID)
	if err != nil {
		return httptransport.AddressResponse{}, err
	}
	return mapAddress(address), nil
}

func (h Handler) GetAddressByWalletHandler(ctx context.Context, wallet string) (httptransport.AddressResponse, error) {
	address, err := h.Addresses.GetAddressByWallet(ctx, wallet)
	if err != nil {
		return httptransport.AddressResponse{}, err
	}
	return mapAddress(address), nil
}

func (h Handler) ListAdminsHandler(ctx context.Context) (httptransport.AddressListResponse, error) {
	admins, err := h.Addresses.ListAdmins(ctx)
	if err != nil {
		return httptransport.AddressListResponse{}, err
	}
	items := make([]httptransport.AddressResponse, 0, len(admins))
	for _, admin := range admins {
		items = append(items, mapAddress(admin))
	}
	return httptransport.AddressListResponse{Items: items}, nil
}

func mapProposal(item entities.Proposal) httptransport.ProposalResponse {
	tally := item.Tally.Clone()
	return httptransport.ProposalResponse{
		ProposalID:       item.ProposalID,
		OwnerID:          item.OwnerID,
		DiscussionID:     item.DiscussionID,
		StartEpoch:       item.StartEpoch,
		EndEpoch:         item.EndEpoch,
		Title:            item.Title,
		Description:      item.Description,
		Picture:          item.Picture,
		CreatedBy:        item.CreatedBy,
		Metadata:         item.MetadataRef,
		ComponentAddress: item.ComponentAddress,
		Tally: httptransport.TallyResponse{
			AddressCount: tally.AddressCount,
			TokenAmount:  tally.TokenAmount,
		},
		Status:    string(item.Status),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func mapProposals(items []entities.Proposal) []httptransport.ProposalResponse {
	result := make([]httptransport.ProposalResponse, 0, len(items))
	for _, item := range items {
		result = append(result, mapProposal(item))
	}
	return result
}

func mapVoter(item entities.Voter) httptransport.VoterResponse {
	return httptransport.VoterResponse{
		VoterID:       item.VoterID,
		AddressID:     item.AddressID,
		ProposalID:    item.ProposalID,
		Voter:         item.WalletAddress,
		ProposalTitle: item.ProposalTitle,
		Selected:      item.Choice,
		Amount:        item.Amount,
		Withdrawn:     item.Withdrawn,
		VotedAt:       item.VotedAt,
	}
}

func mapVoters(items []entities.Voter) []httptransport.VoterResponse {
	result := make([]httptransport.VoterResponse, 0, len(items))
	for _, item := range items {
		result = append(result, mapVoter(item))
	}
	return result
}

func mapAddress(item entities.Address) httptransport.AddressResponse {
	return httptransport.AddressResponse{
		AddressID:    item.AddressID,
		Address:      item.WalletAddress,
		Role:         string(item.Role),
		VaultAddress: item.VaultAddress,
		CreatedAt:    item.CreatedAt,
	}
}

func counterMap(counter entities.StatusCounter) map[string]int64 {
	values := make(map[string]int64, len(entities.AllStatuses))
	for _, status := range entities.AllStatuses {
		values[string(status)] = counter.Get(status)
	}
	return values
}
