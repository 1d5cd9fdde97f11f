package postgresadapter

import (
	"encoding/json"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	"arcane/contexts/governance/proposal-engine/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type addressModel struct {
	AddressID     int64     `gorm:"column:id;primaryKey;autoIncrement"`
	WalletAddress string    `gorm:"column:address;uniqueIndex;not null"`
	Role          string    `gorm:"column:role;not null;default:member"`
	VaultAddress  string    `gorm:"column:vault_address"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (addressModel) TableName() string {
	return "addresses"
}

func addressModelFromEntity(item entities.Address) addressModel {
	return addressModel{
		AddressID:     item.AddressID,
		WalletAddress: item.WalletAddress,
		Role:          string(item.Role),
		VaultAddress:  item.VaultAddress,
		CreatedAt:     item.CreatedAt.UTC(),
	}
}

func (m addressModel) toEntity() entities.Address {
	return entities.Address{
		AddressID:     m.AddressID,
		WalletAddress: m.WalletAddress,
		Role:          entities.Role(m.Role),
		VaultAddress:  m.VaultAddress,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

type discussionModel struct {
	DiscussionID int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AddressID    int64     `gorm:"column:address_id;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (m discussionModel) toEntity() entities.Discussion {
	return entities.Discussion{
		DiscussionID: m.DiscussionID,
		AddressID:    m.AddressID,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func (discussionModel) TableName() string {
	return "discussions"
}

type proposalModel struct {
	ProposalID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OwnerID          int64     `gorm:"column:address_id;index;not null"`
	DiscussionID     int64     `gorm:"column:discussion_id;uniqueIndex"`
	StartEpoch       int64     `gorm:"column:start_epoch;not null"`
	EndEpoch         int64     `gorm:"column:end_epoch;not null;index:idx_proposals_status_end_epoch,priority:2"`
	Title            string    `gorm:"column:title"`
	Description      string    `gorm:"column:description"`
	Picture          string    `gorm:"column:picture"`
	CreatedBy        string    `gorm:"column:created_by"`
	MetadataRef      string    `gorm:"column:metadata;not null"`
	ComponentAddress string    `gorm:"column:component_address"`
	VoteAddressCount string    `gorm:"column:vote_address_count;type:jsonb;not null"`
	VoteTokenAmount  string    `gorm:"column:vote_token_amount;type:jsonb;not null"`
	Status           string    `gorm:"column:status;not null;index:idx_proposals_status_end_epoch,priority:1"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (proposalModel) TableName() string {
	return "proposals"
}

func proposalModelFromEntity(item entities.Proposal) (proposalModel, error) {
	addressCount, err := json.Marshal(item.Tally.AddressCount)
	if err != nil {
		return proposalModel{}, err
	}
	tokenAmount, err := json.Marshal(item.Tally.TokenAmount)
	if err != nil {
		return proposalModel{}, err
	}
	return proposalModel{
		ProposalID:       item.ProposalID,
		OwnerID:          item.OwnerID,
		DiscussionID:     item.DiscussionID,
		StartEpoch:       item.StartEpoch,
		EndEpoch:         item.EndEpoch,
		Title:            item.Title,
		Description:      item.Description,
		Picture:          item.Picture,
		CreatedBy:        item.CreatedBy,
		MetadataRef:      item.MetadataRef,
		ComponentAddress: item.ComponentAddress,
		VoteAddressCount: string(addressCount),
		VoteTokenAmount:  string(tokenAmount),
		Status:           string(item.Status),
		CreatedAt:        item.CreatedAt.UTC(),
		UpdatedAt:        item.UpdatedAt.UTC(),
	}, nil
}

func (m proposalModel) toEntity() (entities.Proposal, error) {
	tally := entities.Tally{}
	if err := json.Unmarshal([]byte(m.VoteAddressCount), &tally.AddressCount); err != nil {
		return entities.Proposal{}, err
	}
	if err := json.Unmarshal([]byte(m.VoteTokenAmount), &tally.TokenAmount); err != nil {
		return entities.Proposal{}, err
	}
	return entities.Proposal{
		ProposalID:       m.ProposalID,
		OwnerID:          m.OwnerID,
		DiscussionID:     m.DiscussionID,
		StartEpoch:       m.StartEpoch,
		EndEpoch:         m.EndEpoch,
		Title:            m.Title,
		Description:      m.Description,
		Picture:          m.Picture,
		CreatedBy:        m.CreatedBy,
		MetadataRef:      m.MetadataRef,
		ComponentAddress: m.ComponentAddress,
		Tally:            tally,
		Status:           entities.ProposalStatus(m.Status),
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}, nil
}

// voterModel rows are never deleted. The unique pair index is the
// double-vote guard.
type voterModel struct {
	VoterID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AddressID     int64     `gorm:"column:address_id;not null;uniqueIndex:idx_voters_address_proposal,priority:1"`
	ProposalID    int64     `gorm:"column:proposal_id;not null;index;uniqueIndex:idx_voters_address_proposal,priority:2"`
	WalletAddress string    `gorm:"column:voter"`
	ProposalTitle string    `gorm:"column:proposal_title"`
	Choice        string    `gorm:"column:selected;not null"`
	Amount        int64     `gorm:"column:amount;not null"`
	Withdrawn     bool      `gorm:"column:withdrawn;not null;default:false"`
	VotedAt       time.Time `gorm:"column:voted_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (voterModel) TableName() string {
	return "voters"
}

func voterModelFromEntity(item entities.Voter) voterModel {
	return voterModel{
		VoterID:       item.VoterID,
		AddressID:     item.AddressID,
		ProposalID:    item.ProposalID,
		WalletAddress: item.WalletAddress,
		ProposalTitle: item.ProposalTitle,
		Choice:        item.Choice,
		Amount:        item.Amount,
		Withdrawn:     item.Withdrawn,
		VotedAt:       item.VotedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m voterModel) toEntity() entities.Voter {
	return entities.Voter{
		VoterID:       m.VoterID,
		AddressID:     m.AddressID,
		ProposalID:    m.ProposalID,
		WalletAddress: m.WalletAddress,
		ProposalTitle: m.ProposalTitle,
		Choice:        m.Choice,
		Amount:        m.Amount,
		Withdrawn:     m.Withdrawn,
		VotedAt:       m.VotedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type statusCounterModel struct {
	ID       int64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	Pending  int64 `gorm:"column:pending;not null;default:0"`
	Active   int64 `gorm:"column:active;not null;default:0"`
	Rejected int64 `gorm:"column:rejected;not null;default:0"`
	Closed   int64 `gorm:"column:closed;not null;default:0"`
}

func (statusCounterModel) TableName() string {
	return "status_counters"
}

func (m statusCounterModel) toEntity() entities.StatusCounter {
	return entities.StatusCounter{
		Pending:  m.Pending,
		Active:   m.Active,
		Rejected: m.Rejected,
		Closed:   m.Closed,
	}
}

type outboxModel struct {
	Sequence     int64      `gorm:"column:sequence;autoIncrement;uniqueIndex"`
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

func (m outboxModel) toMessage() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
