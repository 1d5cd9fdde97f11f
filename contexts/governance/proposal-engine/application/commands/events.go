package commands

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	"arcane/contexts/governance/proposal-engine/ports"
)

func newGovernanceEnvelope(
	eventID string,
	eventType string,
	proposalID int64,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Lifecycle events are partitioned by proposal so consumers see each
	// proposal's transitions in commit order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "proposal-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "proposal_id",
		PartitionKey:     strconv.FormatInt(proposalID, 10),
		Data:             payload,
	}, nil
}

func proposalEventData(proposal entities.Proposal) map[string]any {
	return map[string]any{
		"proposal_id":  proposal.ProposalID,
		"owner_id":     proposal.OwnerID,
		"start_epoch":  proposal.StartEpoch,
		"end_epoch":    proposal.EndEpoch,
		"status":       string(proposal.Status),
		"choice_keys":  proposal.Tally.Keys(),
		"metadata_ref": proposal.MetadataRef,
	}
}

func voterEventData(voter entities.Voter) map[string]any {
	return map[string]any{
		"voter_id":    voter.VoterID,
		"address_id":  voter.AddressID,
		"proposal_id": voter.ProposalID,
		"choice":      voter.Choice,
		"amount":      voter.Amount,
		"withdrawn":   voter.Withdrawn,
	}
}

// appendEvent writes the envelope through the same transaction as the state
// change it describes.
func (uc LifecycleUseCase) appendEvent(
	ctx context.Context,
	tx ports.TxStore,
	eventType string,
	proposalID int64,
	occurredAt time.Time,
	data map[string]any,
) error {
	if uc.IDGen == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data["occurred_at"] = occurredAt.UTC().Format(time.RFC3339)
	envelope, err := newGovernanceEnvelope(eventID, eventType, proposalID, occurredAt, data)
	if err != nil {
		return err
	}
	return tx.AppendOutbox(ctx, envelope)
}
