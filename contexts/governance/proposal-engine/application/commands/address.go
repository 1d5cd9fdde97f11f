package commands

import (
	"context"
	"strings"

	application "arcane/contexts/governance/proposal-engine/application"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
)

type RegisterAddressCommand struct {
	WalletAddress string
	Role          string
	VaultAddress  string
}

type ChangeAddressRoleCommand struct {
	AddressID int64
	Role      string
}

// RegisterAddress adds a participant to the identity store. Wallet
// addresses are unique.
func (uc LifecycleUseCase) RegisterAddress(ctx context.Context, cmd RegisterAddressCommand) (entities.Address, error) {
	logger := application.ResolveLogger(uc.Logger)
	wallet := strings.TrimSpace(cmd.WalletAddress)
	if wallet == "" {
		return entities.Address{}, domainerrors.ErrInvalidInput
	}
	role := entities.RoleMember
	if strings.TrimSpace(cmd.Role) != "" {
		parsed, err := entities.ParseRole(cmd.Role)
		if err != nil {
			return entities.Address{}, err
		}
		role = parsed
	}

	now := uc.now()
	var registered entities.Address
	err := uc.runInTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		if _, found, err := tx.GetAddressByWallet(ctx, wallet); err != nil {
			return err
		} else if found {
			return domainerrors.ErrAddressAlreadyRegistered
		}
		address, err := tx.CreateAddress(ctx, entities.Address{
			WalletAddress: wallet,
			Role:          role,
			VaultAddress:  strings.TrimSpace(cmd.VaultAddress),
			CreatedAt:     now,
		})
		if err != nil {
			return err
		}
		registered = address
		return nil
	})
	if err != nil {
		uc.logFailure("address register failed", "governance_address_register_failed", err,
			"wallet_address", wallet,
		)
		return entities.Address{}, err
	}

	logger.Info("address registered",
		"event", "governance_address_registered",
		"module", application.ModuleName,
		"layer", "application",
		"address_id", registered.AddressID,
		"role", string(registered.Role),
	)
	return registered, nil
}

func (uc LifecycleUseCase) ChangeAddressRole(ctx context.Context, cmd ChangeAddressRoleCommand) (entities.Address, error) {
	logger := application.ResolveLogger(uc.Logger)
	role, err := entities.ParseRole(cmd.Role)
	if err != nil {
		return entities.Address{}, err
	}

	var updated entities.Address
	err = uc.runInTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		address, err := tx.GetAddress(ctx, cmd.AddressID)
		if err != nil {
			return err
		}
		address.Role = role
		if err := tx.UpdateAddress(ctx, address); err != nil {
			return err
		}
		updated = address
		return nil
	})
	if err != nil {
		uc.logFailure("address role change failed", "governance_address_role_change_failed", err,
			"address_id", cmd.AddressID,
		)
		return entities.Address{}, err
	}

	logger.Info("address role changed",
		"event", "governance_address_role_changed",
		"module", application.ModuleName,
		"layer", "application",
		"address_id", updated.AddressID,
		"role", string(updated.Role),
	)
	return updated, nil
}
