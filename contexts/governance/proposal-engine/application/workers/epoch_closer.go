package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	application "arcane/contexts/governance/proposal-engine/application"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
)

// ProposalCloser is the slice of the lifecycle engine the closer drives.
type ProposalCloser interface {
	CloseElapsedProposals(ctx context.Context, epoch int64, limit int) ([]entities.Proposal, error)
}

// EpochCloser closes elapsed proposals against the ledger's current epoch.
type EpochCloser struct {
	Epochs    ports.EpochSource
	Closer    ProposalCloser
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce reads the epoch once and closes one batch. The epoch is never
// guessed: a failed read skips the cycle.
func (w EpochCloser) RunOnce(ctx context.Context) ([]entities.Proposal, error) {
	logger := application.ResolveLogger(w.Logger)
	epoch, err := w.Epochs.CurrentEpoch(ctx)
	if err != nil {
		logger.Error("current epoch read failed",
			"event", "governance_epoch_read_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		if errors.Is(err, domainerrors.ErrEpochUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domainerrors.ErrEpochUnavailable, err)
	}

	closed, err := w.Closer.CloseElapsedProposals(ctx, epoch, w.BatchSize)
	if err != nil {
		logger.Error("epoch close cycle failed",
			"event", "governance_epoch_close_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"epoch", epoch,
			"error", err.Error(),
		)
		return nil, err
	}
	if len(closed) == 0 {
		logger.Debug("epoch close cycle found nothing to close",
			"event", "governance_epoch_close_noop",
			"module", application.ModuleName,
			"layer", "worker",
			"epoch", epoch,
		)
		return closed, nil
	}
	logger.Info("epoch close cycle completed",
		"event", "governance_epoch_close_completed",
		"module", application.ModuleName,
		"layer", "worker",
		"epoch", epoch,
		"closed_count", len(closed),
	)
	return closed, nil
}
