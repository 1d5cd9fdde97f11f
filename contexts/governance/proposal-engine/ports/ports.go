package ports

import (
	"context"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	contractsv1 "arcane/contracts/gen/events/v1"
)

// TxStore is the write surface available inside one transaction. Methods
// named ForUpdate take row locks that are held until the transaction ends.
// Implementations lock proposal rows before the counter row.
type TxStore interface {
	GetAddress(ctx context.Context, addressID int64) (entities.Address, error)
	GetAddressByWallet(ctx context.Context, walletAddress string) (entities.Address, bool, error)
	CreateAddress(ctx context.Context, address entities.Address) (entities.Address, error)
	UpdateAddress(ctx context.Context, address entities.Address) error

	GetProposalForUpdate(ctx context.Context, proposalID int64) (entities.Proposal, error)
	ListElapsedProposalsForUpdate(ctx context.Context, epoch int64, limit int) ([]entities.Proposal, error)
	CreateDiscussion(ctx context.Context, discussion entities.Discussion) (entities.Discussion, error)
	CreateProposal(ctx context.Context, proposal entities.Proposal) (entities.Proposal, error)
	UpdateProposal(ctx context.Context, proposal entities.Proposal) error

	FindVoter(ctx context.Context, addressID int64, proposalID int64) (entities.Voter, bool, error)
	CreateVoter(ctx context.Context, voter entities.Voter) (entities.Voter, error)
	UpdateVoter(ctx context.Context, voter entities.Voter) error

	GetStatusCounterForUpdate(ctx context.Context) (entities.StatusCounter, error)
	SaveStatusCounter(ctx context.Context, counter entities.StatusCounter) error

	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// UnitOfWork runs fn in a single transaction. A non-nil error from fn rolls
// back every write made through tx.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}

type ProposalFilter struct {
	Statuses []entities.ProposalStatus
	Offset   int
	Limit    int
}

type ProposalReader interface {
	GetProposal(ctx context.Context, proposalID int64) (entities.Proposal, error)
	ListProposals(ctx context.Context, filter ProposalFilter) ([]entities.Proposal, error)
	ListProposalsByOwner(ctx context.Context, ownerID int64) ([]entities.Proposal, error)
	ListVotersByProposal(ctx context.Context, proposalID int64) ([]entities.Voter, error)
	GetVoter(ctx context.Context, proposalID int64, addressID int64) (entities.Voter, error)
	ListVotesByAddress(ctx context.Context, addressID int64) ([]entities.Voter, error)
	GetStatusCounter(ctx context.Context) (entities.StatusCounter, error)
	CountProposalsByStatus(ctx context.Context) (entities.StatusCounter, error)
}

type AddressReader interface {
	GetAddress(ctx context.Context, addressID int64) (entities.Address, error)
	GetAddressByWallet(ctx context.Context, walletAddress string) (entities.Address, error)
	ListAddressesByRole(ctx context.Context, role entities.Role) ([]entities.Address, error)
}

// MetadataResolver fetches proposal content for a metadata reference.
// Failures surface as ErrMetadataUnavailable.
type MetadataResolver interface {
	Resolve(ctx context.Context, ref string) (entities.ProposalMetadata, error)
}

// EpochSource reports the current ledger epoch.
type EpochSource interface {
	CurrentEpoch(ctx context.Context) (int64, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
