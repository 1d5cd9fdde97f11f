package entities

import domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"

// StatusCounterID is the primary key of the singleton counter row.
const StatusCounterID int64 = 1

// StatusCounter holds one count per proposal status. The sum of all fields
// always equals the number of proposal rows.
type StatusCounter struct {
	Pending  int64
	Active   int64
	Rejected int64
	Closed   int64
}

func (c StatusCounter) Get(status ProposalStatus) int64 {
	switch status {
	case StatusPending:
		return c.Pending
	case StatusActive:
		return c.Active
	case StatusRejected:
		return c.Rejected
	case StatusClosed:
		return c.Closed
	default:
		return 0
	}
}

func (c *StatusCounter) add(status ProposalStatus, delta int64) error {
	switch status {
	case StatusPending:
		c.Pending += delta
	case StatusActive:
		c.Active += delta
	case StatusRejected:
		c.Rejected += delta
	case StatusClosed:
		c.Closed += delta
	default:
		return domainerrors.ErrInvalidStatus
	}
	return nil
}

// Increment records a newly created proposal in status.
func (c *StatusCounter) Increment(status ProposalStatus) error {
	return c.add(status, 1)
}

// Add applies delta to one field. Recounts use it; transitions use Move.
func (c *StatusCounter) Add(status ProposalStatus, delta int64) error {
	return c.add(status, delta)
}

// Move adjusts exactly two fields: from loses one, to gains one.
func (c *StatusCounter) Move(from ProposalStatus, to ProposalStatus) error {
	if !from.Valid() || !to.Valid() {
		return domainerrors.ErrInvalidStatus
	}
	_ = c.add(from, -1)
	_ = c.add(to, 1)
	return nil
}

// Sum adds up the requested fields. Every status must be valid.
func (c StatusCounter) Sum(statuses ...ProposalStatus) (int64, error) {
	var total int64
	for _, status := range statuses {
		if !status.Valid() {
			return 0, domainerrors.ErrInvalidStatus
		}
		total += c.Get(status)
	}
	return total, nil
}

func (c StatusCounter) Total() int64 {
	return c.Pending + c.Active + c.Rejected + c.Closed
}
