package postgresadapter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestProposalModelKeepsTallyKeySets(t *testing.T) {
	tally, err := entities.NewTally([]string{"yes", "no", "abstain"})
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if err := tally.Record("yes", 250); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	row, err := proposalModelFromEntity(entities.Proposal{
		ProposalID: 7,
		Tally:      tally,
		Status:     entities.StatusActive,
	})
	if err != nil {
		t.Fatalf("to model failed: %v", err)
	}
	if row.VoteAddressCount != `{"abstain":0,"no":0,"yes":1}` {
		t.Fatalf("unexpected address count column: %s", row.VoteAddressCount)
	}

	proposal, err := row.toEntity()
	if err != nil {
		t.Fatalf("to entity failed: %v", err)
	}
	if len(proposal.Tally.AddressCount) != 3 || len(proposal.Tally.TokenAmount) != 3 {
		t.Fatalf("key sets changed: %+v", proposal.Tally)
	}
	if proposal.Tally.TokenAmount["yes"] != 250 || proposal.Status != entities.StatusActive {
		t.Fatalf("unexpected proposal: %+v", proposal)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert voter: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("serialization failure is not a unique violation")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestDiscussionModelKeepsOwnerLink(t *testing.T) {
	created := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	discussion := discussionModel{DiscussionID: 7, AddressID: 3, CreatedAt: created}.toEntity()
	if discussion.DiscussionID != 7 || discussion.AddressID != 3 {
		t.Fatalf("unexpected discussion: %+v", discussion)
	}
	if discussion.CreatedAt.Location() != time.UTC || !discussion.CreatedAt.Equal(created) {
		t.Fatalf("expected UTC timestamp, got %v", discussion.CreatedAt)
	}
}
