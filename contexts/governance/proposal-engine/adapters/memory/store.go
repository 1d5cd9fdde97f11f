package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	seq       int64
	message   ports.OutboxMessage
	published bool
}

type state struct {
	addresses   map[int64]entities.Address
	proposals   map[int64]entities.Proposal
	discussions map[int64]entities.Discussion
	voters      map[int64]entities.Voter
	counter     entities.StatusCounter
	outbox      map[string]outboxRecord

	nextAddressID    int64
	nextProposalID   int64
	nextDiscussionID int64
	nextVoterID      int64
	nextOutboxSeq    int64
}

func newState() state {
	return state{
		addresses:   make(map[int64]entities.Address),
		proposals:   make(map[int64]entities.Proposal),
		discussions: make(map[int64]entities.Discussion),
		voters:      make(map[int64]entities.Voter),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s state) clone() state {
	clone := s
	clone.addresses = make(map[int64]entities.Address, len(s.addresses))
	for id, address := range s.addresses {
		clone.addresses[id] = address
	}
	clone.proposals = make(map[int64]entities.Proposal, len(s.proposals))
	for id, proposal := range s.proposals {
		clone.proposals[id] = proposal.Clone()
	}
	clone.discussions = make(map[int64]entities.Discussion, len(s.discussions))
	for id, discussion := range s.discussions {
		clone.discussions[id] = discussion
	}
	clone.voters = make(map[int64]entities.Voter, len(s.voters))
	for id, voter := range s.voters {
		clone.voters[id] = voter
	}
	clone.outbox = make(map[string]outboxRecord, len(s.outbox))
	for id, record := range s.outbox {
		clone.outbox[id] = record
	}
	return clone
}

// Store is the in-memory governance store. WithinTx holds the write lock for
// the whole unit and restores a snapshot when fn fails, so units are
// serializable and all-or-nothing.
type Store struct {
	mu    sync.RWMutex
	state state
	epoch int64
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// SeedAddress inserts an address outside any transaction. Used by tests and
// the in-memory module.
func (s *Store) SeedAddress(address entities.Address) entities.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := &txView{state: &s.state}
	created, _ := view.CreateAddress(context.Background(), address)
	return created
}

// Discussion returns a stored discussion thread.
func (s *Store) Discussion(discussionID int64) (entities.Discussion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	discussion, ok := s.state.discussions[discussionID]
	return discussion, ok
}

// SetEpoch sets the value CurrentEpoch reports.
func (s *Store) SetEpoch(epoch int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = epoch
}

func (s *Store) CurrentEpoch(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch, nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
	}()
	if err := fn(ctx, &txView{state: &s.state}); err != nil {
		return err
	}
	committed = true
	return nil
}

// txView is only handed out while WithinTx holds the store lock.
type txView struct {
	state *state
}

func (v *txView) GetAddress(_ context.Context, addressID int64) (entities.Address, error) {
	address, ok := v.state.addresses[addressID]
	if !ok {
		return entities.Address{}, domainerrors.ErrAddressNotFound
	}
	return address, nil
}

func (v *txView) GetAddressByWallet(_ context.Context, walletAddress string) (entities.Address, bool, error) {
	address, ok := findAddressByWallet(v.state, walletAddress)
	return address, ok, nil
}

func (v *txView) CreateAddress(_ context.Context, address entities.Address) (entities.Address, error) {
	address.WalletAddress = strings.TrimSpace(address.WalletAddress)
	if _, exists := findAddressByWallet(v.state, address.WalletAddress); exists {
		return entities.Address{}, domainerrors.ErrAddressAlreadyRegistered
	}
	if address.AddressID == 0 {
		v.state.nextAddressID++
		address.AddressID = v.state.nextAddressID
	} else if address.AddressID > v.state.nextAddressID {
		v.state.nextAddressID = address.AddressID
	}
	if address.Role == "" {
		address.Role = entities.RoleMember
	}
	if address.CreatedAt.IsZero() {
		address.CreatedAt = time.Now().UTC()
	}
	v.state.addresses[address.AddressID] = address
	return address, nil
}

func (v *txView) UpdateAddress(_ context.Context, address entities.Address) error {
	if _, ok := v.state.addresses[address.AddressID]; !ok {
		return domainerrors.ErrAddressNotFound
	}
	v.state.addresses[address.AddressID] = address
	return nil
}

func (v *txView) GetProposalForUpdate(_ context.Context, proposalID int64) (entities.Proposal, error) {
	proposal, ok := v.state.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal.Clone(), nil
}

func (v *txView) ListElapsedProposalsForUpdate(_ context.Context, epoch int64, limit int) ([]entities.Proposal, error) {
	items := make([]entities.Proposal, 0)
	for _, proposal := range v.state.proposals {
		if proposal.Status.CanClose() && proposal.Elapsed(epoch) {
			items = append(items, proposal.Clone())
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProposalID < items[j].ProposalID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (v *txView) CreateDiscussion(_ context.Context, discussion entities.Discussion) (entities.Discussion, error) {
	v.state.nextDiscussionID++
	discussion.DiscussionID = v.state.nextDiscussionID
	v.state.discussions[discussion.DiscussionID] = discussion
	return discussion, nil
}

func (v *txView) CreateProposal(_ context.Context, proposal entities.Proposal) (entities.Proposal, error) {
	v.state.nextProposalID++
	proposal.ProposalID = v.state.nextProposalID
	v.state.proposals[proposal.ProposalID] = proposal.Clone()
	return proposal, nil
}

func (v *txView) UpdateProposal(_ context.Context, proposal entities.Proposal) error {
	if _, ok := v.state.proposals[proposal.ProposalID]; !ok {
		return domainerrors.ErrProposalNotFound
	}
	v.state.proposals[proposal.ProposalID] = proposal.Clone()
	return nil
}

func (v *txView) FindVoter(_ context.Context, addressID int64, proposalID int64) (entities.Voter, bool, error) {
	voter, ok := findVoter(v.state, addressID, proposalID)
	return voter, ok, nil
}

func (v *txView) CreateVoter(_ context.Context, voter entities.Voter) (entities.Voter, error) {
	if _, exists := findVoter(v.state, voter.AddressID, voter.ProposalID); exists {
		return entities.Voter{}, domainerrors.ErrAlreadyVoted
	}
	v.state.nextVoterID++
	voter.VoterID = v.state.nextVoterID
	v.state.voters[voter.VoterID] = voter
	return voter, nil
}

func (v *txView) UpdateVoter(_ context.Context, voter entities.Voter) error {
	if _, ok := v.state.voters[voter.VoterID]; !ok {
		return domainerrors.ErrVoterNotFound
	}
	v.state.voters[voter.VoterID] = voter
	return nil
}

func (v *txView) GetStatusCounterForUpdate(_ context.Context) (entities.StatusCounter, error) {
	return v.state.counter, nil
}

func (v *txView) SaveStatusCounter(_ context.Context, counter entities.StatusCounter) error {
	v.state.counter = counter
	return nil
}

func (v *txView) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := v.state.outbox[outboxID]; exists {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	v.state.nextOutboxSeq++
	v.state.outbox[outboxID] = outboxRecord{
		seq: v.state.nextOutboxSeq,
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) GetProposal(_ context.Context, proposalID int64) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.state.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal.Clone(), nil
}

func (s *Store) ListProposals(_ context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[entities.ProposalStatus]struct{}, len(filter.Statuses))
	for _, status := range filter.Statuses {
		wanted[status] = struct{}{}
	}
	items := make([]entities.Proposal, 0, len(s.state.proposals))
	for _, proposal := range s.state.proposals {
		if len(wanted) > 0 {
			if _, ok := wanted[proposal.Status]; !ok {
				continue
			}
		}
		items = append(items, proposal.Clone())
	}
	sortProposalsNewestFirst(items)
	return paginate(items, filter.Offset, filter.Limit), nil
}

func (s *Store) ListProposalsByOwner(_ context.Context, ownerID int64) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proposal, 0)
	for _, proposal := range s.state.proposals {
		if proposal.OwnerID == ownerID {
			items = append(items, proposal.Clone())
		}
	}
	sortProposalsNewestFirst(items)
	return items, nil
}

func (s *Store) ListVotersByProposal(_ context.Context, proposalID int64) ([]entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Voter, 0)
	for _, voter := range s.state.voters {
		if voter.ProposalID == proposalID {
			items = append(items, voter)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VoterID < items[j].VoterID
	})
	return items, nil
}

func (s *Store) GetVoter(_ context.Context, proposalID int64, addressID int64) (entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := findVoter(&s.state, addressID, proposalID)
	if !ok {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) ListVotesByAddress(_ context.Context, addressID int64) ([]entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Voter, 0)
	for _, voter := range s.state.voters {
		if voter.AddressID == addressID {
			items = append(items, voter)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VoterID > items[j].VoterID
	})
	return items, nil
}

func (s *Store) GetStatusCounter(_ context.Context) (entities.StatusCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.counter, nil
}

func (s *Store) CountProposalsByStatus(_ context.Context) (entities.StatusCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counter entities.StatusCounter
	for _, proposal := range s.state.proposals {
		if err := counter.Increment(proposal.Status); err != nil {
			return entities.StatusCounter{}, err
		}
	}
	return counter, nil
}

func (s *Store) GetAddress(_ context.Context, addressID int64) (entities.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	address, ok := s.state.addresses[addressID]
	if !ok {
		return entities.Address{}, domainerrors.ErrAddressNotFound
	}
	return address, nil
}

func (s *Store) GetAddressByWallet(_ context.Context, walletAddress string) (entities.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	address, ok := findAddressByWallet(&s.state, walletAddress)
	if !ok {
		return entities.Address{}, domainerrors.ErrAddressNotFound
	}
	return address, nil
}

func (s *Store) ListAddressesByRole(_ context.Context, role entities.Role) ([]entities.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Address, 0)
	for _, address := range s.state.addresses {
		if address.Role == role {
			items = append(items, address)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].AddressID < items[j].AddressID
	})
	return items, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	records := make([]outboxRecord, 0, len(s.state.outbox))
	for _, record := range s.state.outbox {
		if !record.published {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].seq < records[j].seq
	})
	if len(records) > limit {
		records = records[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(records))
	for _, record := range records {
		items = append(items, record.message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(outboxID)
	record, ok := s.state.outbox[key]
	if !ok {
		return domainerrors.ErrNotFound
	}
	record.published = true
	s.state.outbox[key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func findAddressByWallet(st *state, walletAddress string) (entities.Address, bool) {
	wallet := strings.TrimSpace(walletAddress)
	for _, address := range st.addresses {
		if address.WalletAddress == wallet {
			return address, true
		}
	}
	return entities.Address{}, false
}

func findVoter(st *state, addressID int64, proposalID int64) (entities.Voter, bool) {
	for _, voter := range st.voters {
		if voter.AddressID == addressID && voter.ProposalID == proposalID {
			return voter, true
		}
	}
	return entities.Voter{}, false
}

func sortProposalsNewestFirst(items []entities.Proposal) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProposalID > items[j].ProposalID
	})
}

func paginate(items []entities.Proposal, offset int, limit int) []entities.Proposal {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []entities.Proposal{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
