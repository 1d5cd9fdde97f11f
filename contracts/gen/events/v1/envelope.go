package v1

import (
	"encoding/json"
	"time"
)

// Governance event types emitted through the outbox.
const (
	EventProposalCreated       = "proposal.created"
	EventProposalStatusChanged = "proposal.status_changed"
	EventProposalClosed        = "proposal.closed"
	EventVoteCast              = "vote.cast"
	EventVoteWithdrawn         = "vote.withdrawn"
)

// Envelope is the versioned event envelope shared by producers and consumers.
// Fields may be added; existing fields must keep their JSON names.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}
