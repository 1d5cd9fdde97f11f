package entities

import (
	"math"
	"sort"
	"strings"
	"time"

	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
)

// Tally keeps two parallel metrics per choice key. Both maps always carry the
// same key set, fixed when the proposal is created.
type Tally struct {
	AddressCount map[string]int64
	TokenAmount  map[string]int64
}

// NewTally validates choice keys and maps each of them to zero.
func NewTally(choiceKeys []string) (Tally, error) {
	if len(choiceKeys) == 0 {
		return Tally{}, domainerrors.ErrInvalidInput
	}
	tally := Tally{
		AddressCount: make(map[string]int64, len(choiceKeys)),
		TokenAmount:  make(map[string]int64, len(choiceKeys)),
	}
	for _, raw := range choiceKeys {
		key := strings.TrimSpace(raw)
		if key == "" {
			return Tally{}, domainerrors.ErrInvalidInput
		}
		if _, exists := tally.AddressCount[key]; exists {
			return Tally{}, domainerrors.ErrInvalidInput
		}
		tally.AddressCount[key] = 0
		tally.TokenAmount[key] = 0
	}
	return tally, nil
}

func (t Tally) Has(key string) bool {
	_, inCount := t.AddressCount[key]
	_, inAmount := t.TokenAmount[key]
	return inCount && inAmount
}

// Record applies one vote. Unknown keys are rejected, never created. A vote
// that would overflow either counter is rejected and leaves the tally as is.
func (t Tally) Record(key string, amount int64) error {
	if !t.Has(key) {
		return domainerrors.ErrInvalidChoiceKey
	}
	if amount < 0 || amount > math.MaxInt64-t.TokenAmount[key] || t.AddressCount[key] == math.MaxInt64 {
		return domainerrors.ErrInvalidInput
	}
	t.AddressCount[key]++
	t.TokenAmount[key] += amount
	return nil
}

// Keys returns the choice keys in lexical order.
func (t Tally) Keys() []string {
	keys := make([]string, 0, len(t.AddressCount))
	for key := range t.AddressCount {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (t Tally) TotalVotes() int64 {
	var total int64
	for _, count := range t.AddressCount {
		total += count
	}
	return total
}

func (t Tally) Clone() Tally {
	clone := Tally{
		AddressCount: make(map[string]int64, len(t.AddressCount)),
		TokenAmount:  make(map[string]int64, len(t.TokenAmount)),
	}
	for key, value := range t.AddressCount {
		clone.AddressCount[key] = value
	}
	for key, value := range t.TokenAmount {
		clone.TokenAmount[key] = value
	}
	return clone
}

type Proposal struct {
	ProposalID       int64
	OwnerID          int64
	DiscussionID     int64
	StartEpoch       int64
	EndEpoch         int64
	Title            string
	Description      string
	Picture          string
	CreatedBy        string
	MetadataRef      string
	ComponentAddress string
	Tally            Tally
	Status           ProposalStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Elapsed reports whether the voting window ended at or before epoch.
func (p Proposal) Elapsed(epoch int64) bool {
	return p.EndEpoch <= epoch
}

func (p Proposal) Clone() Proposal {
	clone := p
	clone.Tally = p.Tally.Clone()
	return clone
}

// Discussion is the opaque thread attached one-to-one to a proposal. It is
// linked to the address that opened it.
type Discussion struct {
	DiscussionID int64
	AddressID    int64
	CreatedAt    time.Time
}

// ProposalMetadata is the off-core content resolved from a metadata reference.
type ProposalMetadata struct {
	Title          string
	Description    string
	Picture        string
	CreatedBy      string
	EndEpochOffset int64
}
