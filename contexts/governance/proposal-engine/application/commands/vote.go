package commands

import (
	"context"
	"errors"
	"strings"

	application "arcane/contexts/governance/proposal-engine/application"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
	contractsv1 "arcane/contracts/gen/events/v1"
)

type CastVoteCommand struct {
	AddressID   int64
	ProposalID  int64
	Choice      string
	TokenAmount int64
}

type WithdrawVoteCommand struct {
	AddressID  int64
	ProposalID int64
}

// CastVote records one weighted vote. Checks run in a fixed order and each
// maps to its own error: existing ledger row, missing proposal, unregistered
// voter, unknown choice key.
func (uc LifecycleUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("vote cast started",
		"event", "governance_vote_cast_started",
		"module", application.ModuleName,
		"layer", "application",
		"address_id", cmd.AddressID,
		"proposal_id", cmd.ProposalID,
	)
	choice := strings.TrimSpace(cmd.Choice)
	if cmd.AddressID <= 0 || cmd.ProposalID <= 0 || choice == "" || cmd.TokenAmount < 0 {
		logger.Warn("vote cast validation failed",
			"event", "governance_vote_cast_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"address_id", cmd.AddressID,
			"proposal_id", cmd.ProposalID,
		)
		return entities.Voter{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	var cast entities.Voter
	err := uc.runInTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		if _, found, err := tx.FindVoter(ctx, cmd.AddressID, cmd.ProposalID); err != nil {
			return err
		} else if found {
			return domainerrors.ErrAlreadyVoted
		}

		proposal, err := tx.GetProposalForUpdate(ctx, cmd.ProposalID)
		if err != nil {
			return err
		}
		address, err := tx.GetAddress(ctx, cmd.AddressID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.ErrAddressNotRegistered
			}
			return err
		}
		if err := proposal.Tally.Record(choice, cmd.TokenAmount); err != nil {
			return err
		}

		// The unique (address_id, proposal_id) index rejects a concurrent
		// insert that passed the lookup above.
		voter, err := tx.CreateVoter(ctx, entities.Voter{
			AddressID:     address.AddressID,
			ProposalID:    proposal.ProposalID,
			WalletAddress: address.WalletAddress,
			ProposalTitle: proposal.Title,
			Choice:        choice,
			Amount:        cmd.TokenAmount,
			VotedAt:       now,
			UpdatedAt:     now,
		})
		if err != nil {
			return err
		}
		proposal.UpdatedAt = now
		if err := tx.UpdateProposal(ctx, proposal); err != nil {
			return err
		}
		if err := uc.appendEvent(ctx, tx, contractsv1.EventVoteCast, proposal.ProposalID, now,
			voterEventData(voter)); err != nil {
			return err
		}
		cast = voter
		return nil
	})
	if err != nil {
		uc.logFailure("vote cast failed", "governance_vote_cast_failed", err,
			"address_id", cmd.AddressID,
			"proposal_id", cmd.ProposalID,
		)
		return entities.Voter{}, err
	}

	logger.Info("vote cast",
		"event", "governance_vote_cast",
		"module", application.ModuleName,
		"layer", "application",
		"voter_id", cast.VoterID,
		"address_id", cast.AddressID,
		"proposal_id", cast.ProposalID,
		"choice", cast.Choice,
	)
	return cast, nil
}

// WithdrawVote flags the ledger row. The proposal tally keeps counting the
// vote, and withdrawing an already withdrawn vote succeeds.
func (uc LifecycleUseCase) WithdrawVote(ctx context.Context, cmd WithdrawVoteCommand) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.AddressID <= 0 || cmd.ProposalID <= 0 {
		return entities.Voter{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	var withdrawn entities.Voter
	err := uc.runInTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		voter, found, err := tx.FindVoter(ctx, cmd.AddressID, cmd.ProposalID)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrVoterNotFound
		}
		voter.Withdrawn = true
		voter.UpdatedAt = now
		if err := tx.UpdateVoter(ctx, voter); err != nil {
			return err
		}
		if err := uc.appendEvent(ctx, tx, contractsv1.EventVoteWithdrawn, voter.ProposalID, now,
			voterEventData(voter)); err != nil {
			return err
		}
		withdrawn = voter
		return nil
	})
	if err != nil {
		uc.logFailure("vote withdraw failed", "governance_vote_withdraw_failed", err,
			"address_id", cmd.AddressID,
			"proposal_id", cmd.ProposalID,
		)
		return entities.Voter{}, err
	}

	logger.Info("vote withdrawn",
		"event", "governance_vote_withdrawn",
		"module", application.ModuleName,
		"layer", "application",
		"voter_id", withdrawn.VoterID,
		"address_id", withdrawn.AddressID,
		"proposal_id", withdrawn.ProposalID,
	)
	return withdrawn, nil
}
