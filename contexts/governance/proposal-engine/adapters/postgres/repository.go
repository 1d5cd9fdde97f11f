package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository is the Postgres-backed governance store. Reads run outside
// transactions; every write goes through WithinTx.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &txStore{db: tx})
	})
}

func (r *Repository) GetProposal(ctx context.Context, proposalID int64) (entities.Proposal, error) {
	var row proposalModel
	err := r.db.WithContext(ctx).Where("id = ?", proposalID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		r.logError("governance_proposal_get_failed", err, "proposal_id", proposalID)
		return entities.Proposal{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListProposals(ctx context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	query := r.db.WithContext(ctx).Model(&proposalModel{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", statusStrings(filter.Statuses))
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []proposalModel
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		r.logError("governance_proposal_list_failed", err)
		return nil, err
	}
	return proposalsFromRows(rows)
}

func (r *Repository) ListProposalsByOwner(ctx context.Context, ownerID int64) ([]entities.Proposal, error) {
	var rows []proposalModel
	if err := r.db.WithContext(ctx).
		Where("address_id = ?", ownerID).
		Order("id DESC").
		Find(&rows).
		Error; err != nil {
		r.logError("governance_proposal_list_by_owner_failed", err, "owner_id", ownerID)
		return nil, err
	}
	return proposalsFromRows(rows)
}

func (r *Repository) ListVotersByProposal(ctx context.Context, proposalID int64) ([]entities.Voter, error) {
	var rows []voterModel
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("id ASC").
		Find(&rows).
		Error; err != nil {
		r.logError("governance_voter_list_failed", err, "proposal_id", proposalID)
		return nil, err
	}
	return votersFromRows(rows), nil
}

func (r *Repository) GetVoter(ctx context.Context, proposalID int64, addressID int64) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("proposal_id = ? AND address_id = ?", proposalID, addressID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListVotesByAddress(ctx context.Context, addressID int64) ([]entities.Voter, error) {
	var rows []voterModel
	if err := r.db.WithContext(ctx).
		Where("address_id = ?", addressID).
		Order("voted_at DESC, id DESC").
		Find(&rows).
		Error; err != nil {
		r.logError("governance_votes_by_address_failed", err, "address_id", addressID)
		return nil, err
	}
	return votersFromRows(rows), nil
}

func (r *Repository) GetStatusCounter(ctx context.Context) (entities.StatusCounter, error) {
	var row statusCounterModel
	err := r.db.WithContext(ctx).Where("id = ?", entities.StatusCounterID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.StatusCounter{}, nil
		}
		r.logError("governance_counter_get_failed", err)
		return entities.StatusCounter{}, err
	}
	return row.toEntity(), nil
}

// CountProposalsByStatus recounts the proposals table. It backs the counter
// drift check, not the hot read path.
func (r *Repository) CountProposalsByStatus(ctx context.Context) (entities.StatusCounter, error) {
	type statusCount struct {
		Status string
		Total  int64
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&proposalModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).
		Error; err != nil {
		r.logError("governance_proposal_recount_failed", err)
		return entities.StatusCounter{}, err
	}
	var counter entities.StatusCounter
	for _, row := range rows {
		if err := counter.Add(entities.ProposalStatus(row.Status), row.Total); err != nil {
			return entities.StatusCounter{}, err
		}
	}
	return counter, nil
}

func (r *Repository) GetAddress(ctx context.Context, addressID int64) (entities.Address, error) {
	var row addressModel
	err := r.db.WithContext(ctx).Where("id = ?", addressID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Address{}, domainerrors.ErrAddressNotFound
		}
		return entities.Address{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetAddressByWallet(ctx context.Context, walletAddress string) (entities.Address, error) {
	var row addressModel
	err := r.db.WithContext(ctx).Where("address = ?", strings.TrimSpace(walletAddress)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Address{}, domainerrors.ErrAddressNotFound
		}
		return entities.Address{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAddressesByRole(ctx context.Context, role entities.Role) ([]entities.Address, error) {
	var rows []addressModel
	if err := r.db.WithContext(ctx).
		Where("role = ?", string(role)).
		Order("id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Address, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		r.logError("governance_outbox_list_failed", err)
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toMessage())
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		r.logError("governance_outbox_mark_failed", result.Error, "outbox_id", outboxID)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) {
	args := append([]any{
		"event", event,
		"module", "governance/proposal-engine",
		"layer", "adapter",
		"error", err.Error(),
	}, attrs...)
	r.logger.Error("governance repository operation failed", args...)
}

func proposalsFromRows(rows []proposalModel) ([]entities.Proposal, error) {
	items := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func votersFromRows(rows []voterModel) []entities.Voter {
	items := make([]entities.Voter, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func statusStrings(statuses []entities.ProposalStatus) []string {
	items := make([]string, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, string(status))
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
