package commands

import (
	"context"
	"log/slog"
	"time"

	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
)

// LifecycleUseCase owns every write to proposals, votes and the status
// counter. Each command commits in exactly one transaction.
type LifecycleUseCase struct {
	UnitOfWork ports.UnitOfWork
	Addresses  ports.AddressReader
	Metadata   ports.MetadataResolver
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc LifecycleUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

// runInTx tags storage aborts with ErrTransactionFailed. Domain errors raised
// inside fn pass through unchanged.
func (uc LifecycleUseCase) runInTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxStore) error) error {
	err := uc.UnitOfWork.WithinTx(ctx, fn)
	if err == nil || domainerrors.IsDomain(err) {
		return err
	}
	return domainerrors.TransactionFailed(err)
}
