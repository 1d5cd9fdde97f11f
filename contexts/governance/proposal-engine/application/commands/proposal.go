package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	application "arcane/contexts/governance/proposal-engine/application"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
	contractsv1 "arcane/contracts/gen/events/v1"
)

// CreateProposalCommand carries an already authenticated owner id.
type CreateProposalCommand struct {
	OwnerID          int64
	StartEpoch       int64
	EndEpoch         int64
	MetadataRef      string
	ComponentAddress string
	ChoiceKeys       []string
}

// CreateProposal checks the owner and resolves metadata before opening the
// transaction, then writes the discussion, the proposal and the pending
// counter increment in one transaction. The owner is re-read inside it.
func (uc LifecycleUseCase) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("proposal create started",
		"event", "governance_proposal_create_started",
		"module", application.ModuleName,
		"layer", "application",
		"owner_id", cmd.OwnerID,
		"start_epoch", cmd.StartEpoch,
	)

	tally, err := entities.NewTally(cmd.ChoiceKeys)
	if err != nil || cmd.StartEpoch < 0 || cmd.EndEpoch < 0 ||
		strings.TrimSpace(cmd.MetadataRef) == "" {
		logger.Warn("proposal create validation failed",
			"event", "governance_proposal_create_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", cmd.OwnerID,
		)
		return entities.Proposal{}, domainerrors.ErrInvalidInput
	}

	if err := uc.checkOwner(ctx, cmd.OwnerID); err != nil {
		logger.Warn("proposal owner check failed",
			"event", "governance_proposal_create_owner_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", cmd.OwnerID,
			"error", err.Error(),
		)
		return entities.Proposal{}, err
	}

	metadata, err := uc.resolveMetadata(ctx, cmd.MetadataRef)
	if err != nil {
		logger.Warn("proposal metadata resolution failed",
			"event", "governance_proposal_create_metadata_failed",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", cmd.OwnerID,
			"metadata_ref", cmd.MetadataRef,
			"error", err.Error(),
		)
		return entities.Proposal{}, err
	}

	endEpoch := cmd.EndEpoch
	if endEpoch == 0 {
		endEpoch = cmd.StartEpoch + metadata.EndEpochOffset
	}
	if endEpoch < cmd.StartEpoch {
		logger.Warn("proposal create epoch window invalid",
			"event", "governance_proposal_create_window_invalid",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", cmd.OwnerID,
			"start_epoch", cmd.StartEpoch,
			"end_epoch", endEpoch,
		)
		return entities.Proposal{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	var created entities.Proposal
	err = uc.runInTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		if _, err := tx.GetAddress(ctx, cmd.OwnerID); err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.ErrUnauthorized
			}
			return err
		}
		discussion, err := tx.CreateDiscussion(ctx, entities.Discussion{
			AddressID: cmd.OwnerID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		proposal, err := tx.CreateProposal(ctx, entities.Proposal{
			OwnerID:          cmd.OwnerID,
			DiscussionID:     discussion.DiscussionID,
			StartEpoch:       cmd.StartEpoch,
			EndEpoch:         endEpoch,
			Title:            metadata.Title,
			Description:      metadata.Description,
			Picture:          metadata.Picture,
			CreatedBy:        metadata.CreatedBy,
			MetadataRef:      strings.TrimSpace(cmd.MetadataRef),
			ComponentAddress: strings.TrimSpace(cmd.ComponentAddress),
			Tally:            tally,
			Status:           entities.StatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return err
		}
		counter, err := tx.GetStatusCounterForUpdate(ctx)
		if err != nil {
			return err
		}
		if err := counter.Increment(entities.StatusPending); err != nil {
			return err
		}
		if err := tx.SaveStatusCounter(ctx, counter); err != nil {
			return err
		}
		if err := uc.appendEvent(ctx, tx, contractsv1.EventProposalCreated, proposal.ProposalID, now,
			proposalEventData(proposal)); err != nil {
			return err
		}
		created = proposal
		return nil
	})
	if err != nil {
		uc.logFailure("proposal create failed", "governance_proposal_create_failed", err,
			"owner_id", cmd.OwnerID,
		)
		return entities.Proposal{}, err
	}

	logger.Info("proposal created",
		"event", "governance_proposal_created",
		"module", application.ModuleName,
		"layer", "application",
		"proposal_id", created.ProposalID,
		"owner_id", created.OwnerID,
		"end_epoch", created.EndEpoch,
	)
	return created, nil
}

// checkOwner is a read outside the transaction so an unregistered caller
// never reaches the metadata resolver.
func (uc LifecycleUseCase) checkOwner(ctx context.Context, ownerID int64) error {
	if ownerID <= 0 {
		return domainerrors.ErrUnauthorized
	}
	if uc.Addresses == nil {
		return nil
	}
	if _, err := uc.Addresses.GetAddress(ctx, ownerID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.ErrUnauthorized
		}
		return err
	}
	return nil
}

func (uc LifecycleUseCase) resolveMetadata(ctx context.Context, ref string) (entities.ProposalMetadata, error) {
	if uc.Metadata == nil {
		return entities.ProposalMetadata{}, domainerrors.ErrMetadataUnavailable
	}
	metadata, err := uc.Metadata.Resolve(ctx, strings.TrimSpace(ref))
	if err != nil {
		if errors.Is(err, domainerrors.ErrMetadataUnavailable) {
			return entities.ProposalMetadata{}, err
		}
		return entities.ProposalMetadata{}, fmt.Errorf("%w: %w", domainerrors.ErrMetadataUnavailable, err)
	}
	return metadata, nil
}

// logFailure logs domain rejections at warn level and storage aborts at error.
func (uc LifecycleUseCase) logFailure(msg string, event string, err error, attrs ...any) {
	logger := application.ResolveLogger(uc.Logger)
	args := append([]any{
		"event", event,
		"module", application.ModuleName,
		"layer", "application",
		"error", err.Error(),
	}, attrs...)
	if domainerrors.RetrySafe(err) {
		logger.Warn(msg, args...)
		return
	}
	logger.Error(msg, args...)
}
