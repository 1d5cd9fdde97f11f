package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// txStore runs on a *gorm.DB bound to one open transaction. Proposal rows
// are always locked before the counter row.
type txStore struct {
	db *gorm.DB
}

func (s *txStore) GetAddress(ctx context.Context, addressID int64) (entities.Address, error) {
	var row addressModel
	err := s.db.WithContext(ctx).Where("id = ?", addressID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Address{}, domainerrors.ErrAddressNotFound
		}
		return entities.Address{}, err
	}
	return row.toEntity(), nil
}

func (s *txStore) GetAddressByWallet(ctx context.Context, walletAddress string) (entities.Address, bool, error) {
	var row addressModel
	err := s.db.WithContext(ctx).Where("address = ?", strings.TrimSpace(walletAddress)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Address{}, false, nil
		}
		return entities.Address{}, false, err
	}
	return row.toEntity(), true, nil
}

func (s *txStore) CreateAddress(ctx context.Context, address entities.Address) (entities.Address, error) {
	row := addressModelFromEntity(address)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Address{}, domainerrors.ErrAddressAlreadyRegistered
		}
		return entities.Address{}, err
	}
	return row.toEntity(), nil
}

func (s *txStore) UpdateAddress(ctx context.Context, address entities.Address) error {
	result := s.db.WithContext(ctx).
		Model(&addressModel{}).
		Where("id = ?", address.AddressID).
		Updates(map[string]any{
			"role":          string(address.Role),
			"vault_address": address.VaultAddress,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAddressNotFound
	}
	return nil
}

func (s *txStore) GetProposalForUpdate(ctx context.Context, proposalID int64) (entities.Proposal, error) {
	var row proposalModel
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", proposalID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, err
	}
	return row.toEntity()
}

func (s *txStore) ListElapsedProposalsForUpdate(ctx context.Context, epoch int64, limit int) ([]entities.Proposal, error) {
	query := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status IN ? AND end_epoch <= ?", statusStrings(entities.ClosableStatuses), epoch).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []proposalModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return proposalsFromRows(rows)
}

func (s *txStore) CreateDiscussion(ctx context.Context, discussion entities.Discussion) (entities.Discussion, error) {
	row := discussionModel{
		AddressID: discussion.AddressID,
		CreatedAt: discussion.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entities.Discussion{}, err
	}
	return row.toEntity(), nil
}

func (s *txStore) CreateProposal(ctx context.Context, proposal entities.Proposal) (entities.Proposal, error) {
	row, err := proposalModelFromEntity(proposal)
	if err != nil {
		return entities.Proposal{}, err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entities.Proposal{}, err
	}
	proposal.ProposalID = row.ProposalID
	return proposal, nil
}

func (s *txStore) UpdateProposal(ctx context.Context, proposal entities.Proposal) error {
	row, err := proposalModelFromEntity(proposal)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&proposalModel{}).
		Where("id = ?", proposal.ProposalID).
		Updates(map[string]any{
			"vote_address_count": row.VoteAddressCount,
			"vote_token_amount":  row.VoteTokenAmount,
			"status":             row.Status,
			"updated_at":         row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProposalNotFound
	}
	return nil
}

func (s *txStore) FindVoter(ctx context.Context, addressID int64, proposalID int64) (entities.Voter, bool, error) {
	var row voterModel
	err := s.db.WithContext(ctx).
		Where("address_id = ? AND proposal_id = ?", addressID, proposalID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, false, nil
		}
		return entities.Voter{}, false, err
	}
	return row.toEntity(), true, nil
}

func (s *txStore) CreateVoter(ctx context.Context, voter entities.Voter) (entities.Voter, error) {
	row := voterModelFromEntity(voter)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Voter{}, domainerrors.ErrAlreadyVoted
		}
		return entities.Voter{}, err
	}
	return row.toEntity(), nil
}

func (s *txStore) UpdateVoter(ctx context.Context, voter entities.Voter) error {
	result := s.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("id = ?", voter.VoterID).
		Updates(map[string]any{
			"withdrawn":  voter.Withdrawn,
			"updated_at": voter.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterNotFound
	}
	return nil
}

func (s *txStore) GetStatusCounterForUpdate(ctx context.Context) (entities.StatusCounter, error) {
	var row statusCounterModel
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", entities.StatusCounterID).
		First(&row).
		Error
	if err == nil {
		return row.toEntity(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.StatusCounter{}, err
	}
	if err := seedStatusCounter(s.db.WithContext(ctx)); err != nil {
		return entities.StatusCounter{}, err
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", entities.StatusCounterID).
		First(&row).
		Error; err != nil {
		return entities.StatusCounter{}, err
	}
	return row.toEntity(), nil
}

func (s *txStore) SaveStatusCounter(ctx context.Context, counter entities.StatusCounter) error {
	return s.db.WithContext(ctx).
		Model(&statusCounterModel{}).
		Where("id = ?", entities.StatusCounterID).
		Updates(map[string]any{
			"pending":  counter.Pending,
			"active":   counter.Active,
			"rejected": counter.Rejected,
			"closed":   counter.Closed,
		}).
		Error
}

func (s *txStore) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func seedStatusCounter(db *gorm.DB) error {
	row := statusCounterModel{ID: entities.StatusCounterID}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row).Error
}
