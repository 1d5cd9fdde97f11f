package entities

import (
	"strings"

	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
)

type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"
	StatusActive   ProposalStatus = "active"
	StatusRejected ProposalStatus = "rejected"
	StatusClosed   ProposalStatus = "closed"
)

// AllStatuses lists every status in counter column order.
var AllStatuses = []ProposalStatus{
	StatusPending,
	StatusActive,
	StatusRejected,
	StatusClosed,
}

// ClosableStatuses are the statuses an elapsed proposal may be closed from.
var ClosableStatuses = []ProposalStatus{
	StatusPending,
	StatusActive,
}

func ParseStatus(raw string) (ProposalStatus, error) {
	status := ProposalStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", domainerrors.ErrInvalidStatus
	}
	return status, nil
}

// ParseStatuses accepts a comma separated list such as "pending,active".
func ParseStatuses(raw string) ([]ProposalStatus, error) {
	items := make([]ProposalStatus, 0, len(AllStatuses))
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		status, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}
		items = append(items, status)
	}
	return items, nil
}

func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected, StatusClosed:
		return true
	default:
		return false
	}
}

func (s ProposalStatus) CanClose() bool {
	switch s {
	case StatusPending, StatusActive:
		return true
	default:
		return false
	}
}

func (s ProposalStatus) String() string {
	return string(s)
}
