package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProposalRequest struct {
	StartEpoch       int64    `json:"start_epoch"`
	EndEpoch         int64    `json:"end_epoch,omitempty"`
	Metadata         string   `json:"metadata"`
	ComponentAddress string   `json:"component_address,omitempty"`
	Votes            []string `json:"votes"`
}

type CastVoteRequest struct {
	Selected string `json:"selected"`
	Amount   int64  `json:"amount"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type CloseElapsedRequest struct {
	// Epoch is read from the ledger gateway when zero.
	Epoch int64 `json:"epoch,omitempty"`
	Limit int   `json:"limit,omitempty"`
}

type RegisterAddressRequest struct {
	Address      string `json:"address"`
	Role         string `json:"role,omitempty"`
	VaultAddress string `json:"vault_address,omitempty"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type TallyResponse struct {
	AddressCount map[string]int64 `json:"vote_address_count"`
	TokenAmount  map[string]int64 `json:"vote_token_amount"`
}

type ProposalResponse struct {
	ProposalID       int64         `json:"id"`
	OwnerID          int64         `json:"address_id"`
	DiscussionID     int64         `json:"discussion_id"`
	StartEpoch       int64         `json:"start_epoch"`
	EndEpoch         int64         `json:"end_epoch"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Picture          string        `json:"picture"`
	CreatedBy        string        `json:"created_by"`
	Metadata         string        `json:"metadata"`
	ComponentAddress string        `json:"component_address,omitempty"`
	Tally            TallyResponse `json:"tally"`
	Status           string        `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int64              `json:"total"`
}

type VoterResponse struct {
	VoterID       int64     `json:"id"`
	AddressID     int64     `json:"address_id"`
	ProposalID    int64     `json:"proposal_id"`
	Voter         string    `json:"voter"`
	ProposalTitle string    `json:"proposal_title,omitempty"`
	Selected      string    `json:"selected"`
	Amount        int64     `json:"amount"`
	Withdrawn     bool      `json:"withdrawn"`
	VotedAt       time.Time `json:"voted_at"`
}

type VoterListResponse struct {
	Items []VoterResponse `json:"items"`
}

type AddressResponse struct {
	AddressID    int64     `json:"id"`
	Address      string    `json:"address"`
	Role         string    `json:"role"`
	VaultAddress string    `json:"vault_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type AddressListResponse struct {
	Items []AddressResponse `json:"items"`
}

type ProposalDetailResponse struct {
	Proposal ProposalResponse `json:"proposal"`
	Owner    AddressResponse  `json:"owner"`
	Voters   []VoterResponse  `json:"voters"`
}

type CounterResponse struct {
	Statuses []string `json:"statuses"`
	Count    int64    `json:"count"`
}

type CloseElapsedResponse struct {
	Epoch  int64              `json:"epoch"`
	Closed []ProposalResponse `json:"closed"`
}

type CounterDriftResponse struct {
	Consistent bool             `json:"consistent"`
	Counter    map[string]int64 `json:"counter"`
	Actual     map[string]int64 `json:"actual"`
}
