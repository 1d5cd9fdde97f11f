package queries

import (
	"context"
	"strings"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
)

type AddressQueryUseCase struct {
	Addresses ports.AddressReader
}

func (uc AddressQueryUseCase) GetAddress(ctx context.Context, addressID int64) (entities.Address, error) {
	if addressID <= 0 {
		return entities.Address{}, domainerrors.ErrAddressNotFound
	}
	return uc.Addresses.GetAddress(ctx, addressID)
}

func (uc AddressQueryUseCase) GetAddressByWallet(ctx context.Context, walletAddress string) (entities.Address, error) {
	wallet := strings.TrimSpace(walletAddress)
	if wallet == "" {
		return entities.Address{}, domainerrors.ErrInvalidInput
	}
	return uc.Addresses.GetAddressByWallet(ctx, wallet)
}

func (uc AddressQueryUseCase) ListAdmins(ctx context.Context) ([]entities.Address, error) {
	return uc.Addresses.ListAddressesByRole(ctx, entities.RoleAdmin)
}
