package commands

import (
	"context"

	application "arcane/contexts/governance/proposal-engine/application"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
	contractsv1 "arcane/contracts/gen/events/v1"
)

type ChangeStatusCommand struct {
	ProposalID int64
	Status     string
}

// ChangeStatus is an administrative override: any status may follow any
// other and the voting window is not consulted.
func (uc LifecycleUseCase) ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	next, err := entities.ParseStatus(cmd.Status)
	if err != nil {
		logger.Warn("proposal status change rejected",
			"event", "governance_proposal_status_invalid",
			"module", application.ModuleName,
			"layer", "application",
			"proposal_id", cmd.ProposalID,
			"status", cmd.Status,
		)
		return entities.Proposal{}, err
	}
	if cmd.ProposalID <= 0 {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}

	now := uc.now()
	var changed entities.Proposal
	var previous entities.ProposalStatus
	err = uc.runInTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		proposal, err := tx.GetProposalForUpdate(ctx, cmd.ProposalID)
		if err != nil {
			return err
		}
		counter, err := tx.GetStatusCounterForUpdate(ctx)
		if err != nil {
			return err
		}
		previous = proposal.Status
		if err := counter.Move(previous, next); err != nil {
			return err
		}
		proposal.Status = next
		proposal.UpdatedAt = now
		if err := tx.UpdateProposal(ctx, proposal); err != nil {
			return err
		}
		if err := tx.SaveStatusCounter(ctx, counter); err != nil {
			return err
		}
		data := proposalEventData(proposal)
		data["previous_status"] = string(previous)
		if err := uc.appendEvent(ctx, tx, contractsv1.EventProposalStatusChanged, proposal.ProposalID, now, data); err != nil {
			return err
		}
		changed = proposal
		return nil
	})
	if err != nil {
		uc.logFailure("proposal status change failed", "governance_proposal_status_change_failed", err,
			"proposal_id", cmd.ProposalID,
			"status", string(next),
		)
		return entities.Proposal{}, err
	}

	logger.Info("proposal status changed",
		"event", "governance_proposal_status_changed",
		"module", application.ModuleName,
		"layer", "application",
		"proposal_id", changed.ProposalID,
		"from", string(previous),
		"to", string(changed.Status),
	)
	return changed, nil
}

// CloseElapsedProposals closes every pending or active proposal whose end
// epoch is at or before epoch. limit caps the batch; zero closes all of
// them. The batch and its counter update commit together, so a failure
// returns no proposals at all.
func (uc LifecycleUseCase) CloseElapsedProposals(ctx context.Context, epoch int64, limit int) ([]entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	if limit < 0 {
		return nil, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	var closed []entities.Proposal
	err := uc.runInTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		candidates, err := tx.ListElapsedProposalsForUpdate(ctx, epoch, limit)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			closed = []entities.Proposal{}
			return nil
		}
		counter, err := tx.GetStatusCounterForUpdate(ctx)
		if err != nil {
			return err
		}
		batch := make([]entities.Proposal, 0, len(candidates))
		for _, proposal := range candidates {
			if !proposal.Status.CanClose() || !proposal.Elapsed(epoch) {
				continue
			}
			previous := proposal.Status
			if err := counter.Move(previous, entities.StatusClosed); err != nil {
				return err
			}
			proposal.Status = entities.StatusClosed
			proposal.UpdatedAt = now
			if err := tx.UpdateProposal(ctx, proposal); err != nil {
				return err
			}
			data := proposalEventData(proposal)
			data["previous_status"] = string(previous)
			data["epoch"] = epoch
			if err := uc.appendEvent(ctx, tx, contractsv1.EventProposalClosed, proposal.ProposalID, now, data); err != nil {
				return err
			}
			batch = append(batch, proposal)
		}
		if err := tx.SaveStatusCounter(ctx, counter); err != nil {
			return err
		}
		closed = batch
		return nil
	})
	if err != nil {
		uc.logFailure("elapsed proposal close failed", "governance_proposal_close_failed", err,
			"epoch", epoch,
		)
		return nil, err
	}

	logger.Info("elapsed proposals closed",
		"event", "governance_proposals_closed",
		"module", application.ModuleName,
		"layer", "application",
		"epoch", epoch,
		"closed_count", len(closed),
	)
	return closed, nil
}
