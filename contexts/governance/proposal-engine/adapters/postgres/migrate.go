package postgresadapter

import (
	"context"
	"fmt"

	"arcane/contexts/governance/proposal-engine/domain/entities"

	"gorm.io/gorm"
)

// Migrate creates the governance tables and seeds the counter row so the
// first transaction never races to create it.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&addressModel{},
		&discussionModel{},
		&proposalModel{},
		&voterModel{},
		&statusCounterModel{},
		&outboxModel{},
	); err != nil {
		return fmt.Errorf("migrate governance tables: %w", err)
	}
	if err := seedStatusCounter(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("seed status counter %d: %w", entities.StatusCounterID, err)
	}
	return nil
}
