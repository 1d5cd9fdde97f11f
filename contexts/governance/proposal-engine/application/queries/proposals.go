package queries

import (
	"context"
	"strings"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ListProposalsQuery struct {
	Page     int
	Limit    int
	Statuses string
}

type ProposalPage struct {
	Items []entities.Proposal
	Page  int
	Limit int
	Total int64
}

type ProposalQueryUseCase struct {
	Proposals ports.ProposalReader
	Addresses ports.AddressReader
}

// ListProposals returns newest proposals first. Total comes from the status
// counter, so it matches CountByStatuses for the same filter.
func (uc ProposalQueryUseCase) ListProposals(ctx context.Context, query ListProposalsQuery) (ProposalPage, error) {
	statuses, err := entities.ParseStatuses(query.Statuses)
	if err != nil {
		return ProposalPage{}, err
	}
	if len(statuses) == 0 {
		statuses = entities.AllStatuses
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, err := uc.Proposals.ListProposals(ctx, ports.ProposalFilter{
		Statuses: statuses,
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
	if err != nil {
		return ProposalPage{}, err
	}
	counter, err := uc.Proposals.GetStatusCounter(ctx)
	if err != nil {
		return ProposalPage{}, err
	}
	total, err := counter.Sum(statuses...)
	if err != nil {
		return ProposalPage{}, err
	}
	return ProposalPage{Items: items, Page: page, Limit: limit, Total: total}, nil
}

func (uc ProposalQueryUseCase) GetProposalDetail(ctx context.Context, proposalID int64) (entities.ProposalDetail, error) {
	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return entities.ProposalDetail{}, err
	}
	voters, err := uc.Proposals.ListVotersByProposal(ctx, proposalID)
	if err != nil {
		return entities.ProposalDetail{}, err
	}
	detail := entities.ProposalDetail{Proposal: proposal, Voters: voters}
	if uc.Addresses != nil {
		owner, err := uc.Addresses.GetAddress(ctx, proposal.OwnerID)
		if err != nil && !domainerrors.IsDomain(err) {
			return entities.ProposalDetail{}, err
		}
		detail.Owner = owner
	}
	return detail, nil
}

func (uc ProposalQueryUseCase) ListProposalsByOwner(ctx context.Context, ownerID int64) ([]entities.Proposal, error) {
	if ownerID <= 0 {
		return nil, domainerrors.ErrInvalidInput
	}
	return uc.Proposals.ListProposalsByOwner(ctx, ownerID)
}

func (uc ProposalQueryUseCase) GetVoter(ctx context.Context, proposalID int64, addressID int64) (entities.Voter, error) {
	if proposalID <= 0 || addressID <= 0 {
		return entities.Voter{}, domainerrors.ErrInvalidInput
	}
	return uc.Proposals.GetVoter(ctx, proposalID, addressID)
}

func (uc ProposalQueryUseCase) ListVotesByAddress(ctx context.Context, addressID int64) ([]entities.Voter, error) {
	if addressID <= 0 {
		return nil, domainerrors.ErrInvalidInput
	}
	return uc.Proposals.ListVotesByAddress(ctx, addressID)
}

// CountByStatuses sums the requested counter fields. An empty list counts
// nothing.
func (uc ProposalQueryUseCase) CountByStatuses(ctx context.Context, statuses []string) (int64, error) {
	parsed := make([]entities.ProposalStatus, 0, len(statuses))
	for _, raw := range statuses {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		status, err := entities.ParseStatus(raw)
		if err != nil {
			return 0, err
		}
		parsed = append(parsed, status)
	}
	counter, err := uc.Proposals.GetStatusCounter(ctx)
	if err != nil {
		return 0, err
	}
	return counter.Sum(parsed...)
}

// ReconcileCounter recounts proposals per status and reports the result
// next to the stored counter. It never writes.
func (uc ProposalQueryUseCase) ReconcileCounter(ctx context.Context) (entities.CounterDrift, error) {
	counter, err := uc.Proposals.GetStatusCounter(ctx)
	if err != nil {
		return entities.CounterDrift{}, err
	}
	actual, err := uc.Proposals.CountProposalsByStatus(ctx)
	if err != nil {
		return entities.CounterDrift{}, err
	}
	return entities.CounterDrift{Counter: counter, Actual: actual}, nil
}
