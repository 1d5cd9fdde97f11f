package entities

import "time"

// Voter is one ledger entry. Rows are never deleted; withdrawal only flips
// the flag and leaves the proposal tally as it was.
type Voter struct {
	VoterID       int64
	AddressID     int64
	ProposalID    int64
	WalletAddress string
	ProposalTitle string
	Choice        string
	Amount        int64
	Withdrawn     bool
	VotedAt       time.Time
	UpdatedAt     time.Time
}

// ProposalDetail is a proposal together with its voter ledger.
type ProposalDetail struct {
	Proposal Proposal
	Owner    Address
	Voters   []Voter
}

// CounterDrift compares the counter row with a live recount.
type CounterDrift struct {
	Counter StatusCounter
	Actual  StatusCounter
}

func (d CounterDrift) Consistent() bool {
	return d.Counter == d.Actual
}
