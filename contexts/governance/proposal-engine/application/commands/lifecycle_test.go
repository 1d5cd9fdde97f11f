package commands

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"arcane/contexts/governance/proposal-engine/adapters/memory"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
	contractsv1 "arcane/contracts/gen/events/v1"
)

type staticMetadata struct {
	metadata entities.ProposalMetadata
	err      error
	calls    int
}

func (m *staticMetadata) Resolve(_ context.Context, _ string) (entities.ProposalMetadata, error) {
	m.calls++
	if m.err != nil {
		return entities.ProposalMetadata{}, m.err
	}
	return m.metadata, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// failingUnitOfWork delegates to a real store and fails one TxStore method
// after the wrapped writes already happened.
type failingUnitOfWork struct {
	inner  ports.UnitOfWork
	failOn string
}

func (u failingUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxStore) error) error {
	return u.inner.WithinTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		return fn(ctx, failingTx{TxStore: tx, failOn: u.failOn})
	})
}

var errInjected = errors.New("injected storage failure")

type failingTx struct {
	ports.TxStore
	failOn string
}

func (t failingTx) SaveStatusCounter(ctx context.Context, counter entities.StatusCounter) error {
	if t.failOn == "SaveStatusCounter" {
		return errInjected
	}
	return t.TxStore.SaveStatusCounter(ctx, counter)
}

func (t failingTx) UpdateProposal(ctx context.Context, proposal entities.Proposal) error {
	if t.failOn == "UpdateProposal" {
		return errInjected
	}
	return t.TxStore.UpdateProposal(ctx, proposal)
}

type fixture struct {
	store    *memory.Store
	usecase  LifecycleUseCase
	metadata *staticMetadata
	owner    entities.Address
	voters   []entities.Address
}

func newFixture(t *testing.T, voterCount int) fixture {
	t.Helper()
	store := memory.NewStore()
	metadata := &staticMetadata{metadata: entities.ProposalMetadata{
		Title:          "Treasury allocation",
		Description:    "Fund the next grants round",
		Picture:        "ipfs://picture",
		CreatedBy:      "council",
		EndEpochOffset: 500,
	}}
	owner := store.SeedAddress(entities.Address{WalletAddress: "account_owner", Role: entities.RoleAdmin})
	voters := make([]entities.Address, 0, voterCount)
	for i := 0; i < voterCount; i++ {
		voters = append(voters, store.SeedAddress(entities.Address{
			WalletAddress: fmt.Sprintf("account_voter_%03d", i),
			Role:          entities.RoleMember,
		}))
	}
	return fixture{
		store:    store,
		metadata: metadata,
		owner:    owner,
		voters:   voters,
		usecase: LifecycleUseCase{
			UnitOfWork: store,
			Addresses:  store,
			Metadata:   metadata,
			Clock:      fixedClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)},
			IDGen:      store,
		},
	}
}

func (f fixture) createProposal(t *testing.T, endEpoch int64, keys ...string) entities.Proposal {
	t.Helper()
	if len(keys) == 0 {
		keys = []string{"yes", "no"}
	}
	proposal, err := f.usecase.CreateProposal(context.Background(), CreateProposalCommand{
		OwnerID:     f.owner.AddressID,
		StartEpoch:  10,
		EndEpoch:    endEpoch,
		MetadataRef: "bafy-proposal",
		ChoiceKeys:  keys,
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	return proposal
}

func assertCounterMatchesRows(t *testing.T, store *memory.Store) {
	t.Helper()
	counter, err := store.GetStatusCounter(context.Background())
	if err != nil {
		t.Fatalf("counter lookup failed: %v", err)
	}
	actual, err := store.CountProposalsByStatus(context.Background())
	if err != nil {
		t.Fatalf("recount failed: %v", err)
	}
	if counter != actual {
		t.Fatalf("counter drift: counter=%+v actual=%+v", counter, actual)
	}
}

func TestCreateProposalInitialisesTallyAndCounter(t *testing.T) {
	f := newFixture(t, 0)
	proposal := f.createProposal(t, 0)

	if proposal.Status != entities.StatusPending {
		t.Fatalf("expected pending, got %s", proposal.Status)
	}
	if proposal.EndEpoch != 510 {
		t.Fatalf("expected end epoch from metadata offset 510, got %d", proposal.EndEpoch)
	}
	if proposal.Title != "Treasury allocation" || proposal.DiscussionID == 0 {
		t.Fatalf("expected metadata and discussion on proposal, got %+v", proposal)
	}
	for _, key := range []string{"yes", "no"} {
		if proposal.Tally.AddressCount[key] != 0 || proposal.Tally.TokenAmount[key] != 0 {
			t.Fatalf("expected zero tally for %q, got %+v", key, proposal.Tally)
		}
	}
	counter, _ := f.store.GetStatusCounter(context.Background())
	if counter.Pending != 1 || counter.Total() != 1 {
		t.Fatalf("expected pending=1, got %+v", counter)
	}

	pending, err := f.store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != contractsv1.EventProposalCreated {
		t.Fatalf("expected one proposal.created event, got %+v", pending)
	}
}

func TestCreateProposalExplicitEndEpochWins(t *testing.T) {
	f := newFixture(t, 0)
	proposal := f.createProposal(t, 42)
	if proposal.EndEpoch != 42 {
		t.Fatalf("expected explicit end epoch 42, got %d", proposal.EndEpoch)
	}
}

func TestCreateProposalRejectsBadInput(t *testing.T) {
	f := newFixture(t, 0)
	cases := []struct {
		name string
		cmd  CreateProposalCommand
		want error
	}{
		{
			name: "no choice keys",
			cmd:  CreateProposalCommand{OwnerID: f.owner.AddressID, StartEpoch: 1, MetadataRef: "ref"},
			want: domainerrors.ErrInvalidInput,
		},
		{
			name: "duplicate choice keys",
			cmd:  CreateProposalCommand{OwnerID: f.owner.AddressID, StartEpoch: 1, MetadataRef: "ref", ChoiceKeys: []string{"yes", "yes"}},
			want: domainerrors.ErrInvalidInput,
		},
		{
			name: "end before start",
			cmd:  CreateProposalCommand{OwnerID: f.owner.AddressID, StartEpoch: 100, EndEpoch: 50, MetadataRef: "ref", ChoiceKeys: []string{"yes"}},
			want: domainerrors.ErrInvalidInput,
		},
		{
			name: "zero owner",
			cmd:  CreateProposalCommand{OwnerID: 0, StartEpoch: 1, MetadataRef: "ref", ChoiceKeys: []string{"yes"}},
			want: domainerrors.ErrUnauthorized,
		},
		{
			name: "unknown owner",
			cmd:  CreateProposalCommand{OwnerID: 999, StartEpoch: 1, MetadataRef: "ref", ChoiceKeys: []string{"yes"}},
			want: domainerrors.ErrUnauthorized,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.usecase.CreateProposal(context.Background(), tc.cmd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	counter, _ := f.store.GetStatusCounter(context.Background())
	if counter.Total() != 0 {
		t.Fatalf("expected no counter change after rejected creates, got %+v", counter)
	}
}

func TestCreateProposalChecksOwnerBeforeMetadata(t *testing.T) {
	f := newFixture(t, 0)
	f.metadata.err = errors.New("gateway down")

	for _, ownerID := range []int64{999, 0, -4} {
		_, err := f.usecase.CreateProposal(context.Background(), CreateProposalCommand{
			OwnerID:     ownerID,
			StartEpoch:  1,
			MetadataRef: "bafy-proposal",
			ChoiceKeys:  []string{"yes", "no"},
		})
		if !errors.Is(err, domainerrors.ErrUnauthorized) {
			t.Fatalf("owner %d: expected unauthorized, got %v", ownerID, err)
		}
	}
	if f.metadata.calls != 0 {
		t.Fatalf("metadata must not be fetched for unregistered owners, got %d calls", f.metadata.calls)
	}
}

func TestCreateProposalLinksDiscussionToOwner(t *testing.T) {
	f := newFixture(t, 0)
	proposal := f.createProposal(t, 0)

	discussion, ok := f.store.Discussion(proposal.DiscussionID)
	if !ok {
		t.Fatalf("discussion %d not stored", proposal.DiscussionID)
	}
	if discussion.AddressID != f.owner.AddressID {
		t.Fatalf("expected discussion linked to owner %d, got %+v", f.owner.AddressID, discussion)
	}
}

func TestCreateProposalMetadataFailureWritesNothing(t *testing.T) {
	f := newFixture(t, 0)
	f.metadata.err = errors.New("gateway timeout")

	_, err := f.usecase.CreateProposal(context.Background(), CreateProposalCommand{
		OwnerID:     f.owner.AddressID,
		StartEpoch:  1,
		MetadataRef: "bafy-missing",
		ChoiceKeys:  []string{"yes", "no"},
	})
	if !errors.Is(err, domainerrors.ErrMetadataUnavailable) {
		t.Fatalf("expected metadata unavailable, got %v", err)
	}
	if got, want := err.Error(), "proposal metadata unavailable: gateway timeout"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if !domainerrors.RetrySafe(err) {
		t.Fatalf("metadata failure should be retry safe")
	}
	items, _ := f.store.ListProposals(context.Background(), ports.ProposalFilter{})
	if len(items) != 0 {
		t.Fatalf("expected no proposals, got %d", len(items))
	}
}

func TestCreateProposalRollsBackOnCounterFailure(t *testing.T) {
	f := newFixture(t, 0)
	f.usecase.UnitOfWork = failingUnitOfWork{inner: f.store, failOn: "SaveStatusCounter"}

	_, err := f.usecase.CreateProposal(context.Background(), CreateProposalCommand{
		OwnerID:     f.owner.AddressID,
		StartEpoch:  1,
		MetadataRef: "bafy",
		ChoiceKeys:  []string{"yes"},
	})
	if !errors.Is(err, domainerrors.ErrTransactionFailed) {
		t.Fatalf("expected transaction failed, got %v", err)
	}
	if domainerrors.RetrySafe(err) {
		t.Fatalf("transaction failure must not be reported retry safe")
	}
	items, _ := f.store.ListProposals(context.Background(), ports.ProposalFilter{})
	if len(items) != 0 {
		t.Fatalf("expected proposal insert rolled back, got %d rows", len(items))
	}
	assertCounterMatchesRows(t, f.store)
	pending, _ := f.store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected no outbox rows after rollback, got %d", len(pending))
	}
}

func TestCastVoteScenario(t *testing.T) {
	f := newFixture(t, 1)
	proposal := f.createProposal(t, 0)
	voter := f.voters[0]

	cast, err := f.usecase.CastVote(context.Background(), CastVoteCommand{
		AddressID:   voter.AddressID,
		ProposalID:  proposal.ProposalID,
		Choice:      "yes",
		TokenAmount: 100,
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if cast.Withdrawn || cast.Amount != 100 || cast.WalletAddress != voter.WalletAddress {
		t.Fatalf("unexpected voter row: %+v", cast)
	}

	_, err = f.usecase.CastVote(context.Background(), CastVoteCommand{
		AddressID:   voter.AddressID,
		ProposalID:  proposal.ProposalID,
		Choice:      "no",
		TokenAmount: 50,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}

	stored, _ := f.store.GetProposal(context.Background(), proposal.ProposalID)
	if stored.Tally.AddressCount["yes"] != 1 || stored.Tally.AddressCount["no"] != 0 {
		t.Fatalf("unexpected address counts: %+v", stored.Tally.AddressCount)
	}
	if stored.Tally.TokenAmount["yes"] != 100 || stored.Tally.TokenAmount["no"] != 0 {
		t.Fatalf("unexpected token amounts: %+v", stored.Tally.TokenAmount)
	}
	voters, _ := f.store.ListVotersByProposal(context.Background(), proposal.ProposalID)
	if len(voters) != 1 {
		t.Fatalf("expected one voter row, got %d", len(voters))
	}
}

func TestCastVoteRejectsTokenOverflow(t *testing.T) {
	f := newFixture(t, 2)
	proposal := f.createProposal(t, 0)

	if _, err := f.usecase.CastVote(context.Background(), CastVoteCommand{
		AddressID:   f.voters[0].AddressID,
		ProposalID:  proposal.ProposalID,
		Choice:      "yes",
		TokenAmount: math.MaxInt64,
	}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	_, err := f.usecase.CastVote(context.Background(), CastVoteCommand{
		AddressID:   f.voters[1].AddressID,
		ProposalID:  proposal.ProposalID,
		Choice:      "yes",
		TokenAmount: 1,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input on overflow, got %v", err)
	}

	stored, _ := f.store.GetProposal(context.Background(), proposal.ProposalID)
	if stored.Tally.TokenAmount["yes"] != math.MaxInt64 || stored.Tally.AddressCount["yes"] != 1 {
		t.Fatalf("tally changed by rejected vote: %+v", stored.Tally)
	}
	if _, err := f.store.GetVoter(context.Background(), proposal.ProposalID, f.voters[1].AddressID); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected no voter row for rejected vote, got %v", err)
	}
}

func TestCastVoteFailureOrder(t *testing.T) {
	f := newFixture(t, 2)
	proposal := f.createProposal(t, 0)
	if _, err := f.usecase.CastVote(context.Background(), CastVoteCommand{
		AddressID: f.voters[0].AddressID, ProposalID: proposal.ProposalID, Choice: "yes", TokenAmount: 1,
	}); err != nil {
		t.Fatalf("seed vote failed: %v", err)
	}

	cases := []struct {
		name string
		cmd  CastVoteCommand
		want error
	}{
		{
			name: "already voted wins over bad choice",
			cmd:  CastVoteCommand{AddressID: f.voters[0].AddressID, ProposalID: proposal.ProposalID, Choice: "maybe", TokenAmount: 1},
			want: domainerrors.ErrAlreadyVoted,
		},
		{
			name: "missing proposal",
			cmd:  CastVoteCommand{AddressID: f.voters[1].AddressID, ProposalID: 999, Choice: "yes", TokenAmount: 1},
			want: domainerrors.ErrProposalNotFound,
		},
		{
			name: "unregistered voter",
			cmd:  CastVoteCommand{AddressID: 777, ProposalID: proposal.ProposalID, Choice: "maybe", TokenAmount: 1},
			want: domainerrors.ErrAddressNotRegistered,
		},
		{
			name: "unknown choice key",
			cmd:  CastVoteCommand{AddressID: f.voters[1].AddressID, ProposalID: proposal.ProposalID, Choice: "maybe", TokenAmount: 1},
			want: domainerrors.ErrInvalidChoiceKey,
		},
		{
			name: "negative amount",
			cmd:  CastVoteCommand{AddressID: f.voters[1].AddressID, ProposalID: proposal.ProposalID, Choice: "yes", TokenAmount: -1},
			want: domainerrors.ErrInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.usecase.CastVote(context.Background(), tc.cmd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	stored, _ := f.store.GetProposal(context.Background(), proposal.ProposalID)
	if _, exists := stored.Tally.AddressCount["maybe"]; exists {
		t.Fatalf("unknown key must never be created: %+v", stored.Tally.AddressCount)
	}
	if stored.Tally.TotalVotes() != 1 {
		t.Fatalf("expected tally to count only the seed vote, got %d", stored.Tally.TotalVotes())
	}
}

func TestCastVoteConcurrentDistinctVotersLoseNoUpdates(t *testing.T) {
	const voterCount = 40
	f := newFixture(t, voterCount)
	proposal := f.createProposal(t, 0)

	var wg sync.WaitGroup
	errs := make(chan error, voterCount)
	var want int64
	for i, voter := range f.voters {
		amount := int64(i + 1)
		want += amount
		wg.Add(1)
		go func(addressID int64, amount int64) {
			defer wg.Done()
			_, err := f.usecase.CastVote(context.Background(), CastVoteCommand{
				AddressID:   addressID,
				ProposalID:  proposal.ProposalID,
				Choice:      "yes",
				TokenAmount: amount,
			})
			errs <- err
		}(voter.AddressID, amount)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent vote failed: %v", err)
		}
	}

	stored, _ := f.store.GetProposal(context.Background(), proposal.ProposalID)
	if stored.Tally.AddressCount["yes"] != voterCount {
		t.Fatalf("expected %d votes, got %d", voterCount, stored.Tally.AddressCount["yes"])
	}
	if stored.Tally.TokenAmount["yes"] != want {
		t.Fatalf("expected amount %d, got %d", want, stored.Tally.TokenAmount["yes"])
	}
}

func TestCastVoteConcurrentSameVoterSucceedsOnce(t *testing.T) {
	const attempts = 16
	f := newFixture(t, 1)
	proposal := f.createProposal(t, 0)

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.usecase.CastVote(context.Background(), CastVoteCommand{
				AddressID:   f.voters[0].AddressID,
				ProposalID:  proposal.ProposalID,
				Choice:      "no",
				TokenAmount: 5,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domainerrors.ErrAlreadyVoted):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful vote, got %d", succeeded)
	}
	voters, _ := f.store.ListVotersByProposal(context.Background(), proposal.ProposalID)
	stored, _ := f.store.GetProposal(context.Background(), proposal.ProposalID)
	if len(voters) != 1 || stored.Tally.TotalVotes() != 1 {
		t.Fatalf("expected one row and one tallied vote, got rows=%d tally=%d", len(voters), stored.Tally.TotalVotes())
	}
}

func TestWithdrawVoteIsIdempotentAndKeepsTally(t *testing.T) {
	f := newFixture(t, 1)
	proposal := f.createProposal(t, 0)
	voter := f.voters[0]

	if _, err := f.usecase.WithdrawVote(context.Background(), WithdrawVoteCommand{
		AddressID: voter.AddressID, ProposalID: proposal.ProposalID,
	}); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found before voting, got %v", err)
	}

	if _, err := f.usecase.CastVote(context.Background(), CastVoteCommand{
		AddressID: voter.AddressID, ProposalID: proposal.ProposalID, Choice: "yes", TokenAmount: 30,
	}); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		withdrawn, err := f.usecase.WithdrawVote(context.Background(), WithdrawVoteCommand{
			AddressID: voter.AddressID, ProposalID: proposal.ProposalID,
		})
		if err != nil {
			t.Fatalf("withdraw #%d failed: %v", i+1, err)
		}
		if !withdrawn.Withdrawn {
			t.Fatalf("withdraw #%d left flag false", i+1)
		}
	}

	stored, _ := f.store.GetProposal(context.Background(), proposal.ProposalID)
	if stored.Tally.AddressCount["yes"] != 1 || stored.Tally.TokenAmount["yes"] != 30 {
		t.Fatalf("withdrawal must not reverse the tally: %+v", stored.Tally)
	}

	_, err := f.usecase.CastVote(context.Background(), CastVoteCommand{
		AddressID: voter.AddressID, ProposalID: proposal.ProposalID, Choice: "no", TokenAmount: 1,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected re-vote after withdrawal to be rejected, got %v", err)
	}
}

func TestChangeStatusMovesCounter(t *testing.T) {
	f := newFixture(t, 0)
	proposal := f.createProposal(t, 0)

	changed, err := f.usecase.ChangeStatus(context.Background(), ChangeStatusCommand{
		ProposalID: proposal.ProposalID,
		Status:     "active",
	})
	if err != nil {
		t.Fatalf("change status failed: %v", err)
	}
	if changed.Status != entities.StatusActive {
		t.Fatalf("expected active, got %s", changed.Status)
	}
	counter, _ := f.store.GetStatusCounter(context.Background())
	if counter.Pending != 0 || counter.Active != 1 {
		t.Fatalf("expected pending=0 active=1, got %+v", counter)
	}

	if _, err := f.usecase.ChangeStatus(context.Background(), ChangeStatusCommand{
		ProposalID: proposal.ProposalID, Status: "active",
	}); err != nil {
		t.Fatalf("same status change failed: %v", err)
	}
	counter, _ = f.store.GetStatusCounter(context.Background())
	if counter.Active != 1 || counter.Total() != 1 {
		t.Fatalf("same status change must be a counter no-op, got %+v", counter)
	}
	assertCounterMatchesRows(t, f.store)
}

func TestChangeStatusErrors(t *testing.T) {
	f := newFixture(t, 0)
	proposal := f.createProposal(t, 0)

	if _, err := f.usecase.ChangeStatus(context.Background(), ChangeStatusCommand{
		ProposalID: proposal.ProposalID, Status: "archived",
	}); !errors.Is(err, domainerrors.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := f.usecase.ChangeStatus(context.Background(), ChangeStatusCommand{
		ProposalID: 404, Status: "active",
	}); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	assertCounterMatchesRows(t, f.store)
}

func TestCloseElapsedProposalsClosesOnlyEligible(t *testing.T) {
	f := newFixture(t, 0)
	p1 := f.createProposal(t, 100)
	p2 := f.createProposal(t, 50)
	p3 := f.createProposal(t, 10)
	p4 := f.createProposal(t, 200)
	for id, status := range map[int64]string{p1.ProposalID: "active", p3.ProposalID: "closed", p4.ProposalID: "active"} {
		if _, err := f.usecase.ChangeStatus(context.Background(), ChangeStatusCommand{ProposalID: id, Status: status}); err != nil {
			t.Fatalf("seed status failed: %v", err)
		}
	}
	before, _ := f.store.GetStatusCounter(context.Background())

	closed, err := f.usecase.CloseElapsedProposals(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("close elapsed failed: %v", err)
	}
	if len(closed) != 2 || closed[0].ProposalID != p1.ProposalID || closed[1].ProposalID != p2.ProposalID {
		t.Fatalf("expected p1 and p2 closed, got %+v", closed)
	}

	after, _ := f.store.GetStatusCounter(context.Background())
	if after.Closed != before.Closed+2 || after.Active != before.Active-1 || after.Pending != before.Pending-1 {
		t.Fatalf("unexpected counter transition: before=%+v after=%+v", before, after)
	}
	untouched, _ := f.store.GetProposal(context.Background(), p3.ProposalID)
	if untouched.Status != entities.StatusClosed {
		t.Fatalf("p3 should stay closed, got %s", untouched.Status)
	}
	open, _ := f.store.GetProposal(context.Background(), p4.ProposalID)
	if open.Status != entities.StatusActive {
		t.Fatalf("p4 has not elapsed and must stay active, got %s", open.Status)
	}
	assertCounterMatchesRows(t, f.store)

	again, err := f.usecase.CloseElapsedProposals(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if again == nil || len(again) != 0 {
		t.Fatalf("expected empty non-nil list on second close, got %+v", again)
	}
}

func TestCloseElapsedProposalsHonoursLimit(t *testing.T) {
	f := newFixture(t, 0)
	for i := 0; i < 3; i++ {
		f.createProposal(t, 20)
	}
	closed, err := f.usecase.CloseElapsedProposals(context.Background(), 20, 2)
	if err != nil {
		t.Fatalf("close elapsed failed: %v", err)
	}
	if len(closed) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(closed))
	}
	counter, _ := f.store.GetStatusCounter(context.Background())
	if counter.Closed != 2 || counter.Pending != 1 {
		t.Fatalf("unexpected counter after limited batch: %+v", counter)
	}
}

func TestCloseElapsedProposalsIsAllOrNothing(t *testing.T) {
	f := newFixture(t, 0)
	f.createProposal(t, 5)
	f.createProposal(t, 6)
	f.usecase.UnitOfWork = failingUnitOfWork{inner: f.store, failOn: "SaveStatusCounter"}

	closed, err := f.usecase.CloseElapsedProposals(context.Background(), 10, 0)
	if err == nil {
		t.Fatalf("expected batch failure")
	}
	if closed != nil {
		t.Fatalf("failed batch must not return proposals, got %+v", closed)
	}
	items, _ := f.store.ListProposals(context.Background(), ports.ProposalFilter{})
	for _, item := range items {
		if item.Status != entities.StatusPending {
			t.Fatalf("proposal %d should have rolled back to pending, got %s", item.ProposalID, item.Status)
		}
	}
	assertCounterMatchesRows(t, f.store)
}

func TestConcurrentStatusChangesAndClosingKeepCounterConsistent(t *testing.T) {
	f := newFixture(t, 0)
	ids := make([]int64, 0, 12)
	for i := 0; i < 12; i++ {
		ids = append(ids, f.createProposal(t, int64(15+i)).ProposalID)
	}

	var wg sync.WaitGroup
	statuses := []string{"active", "rejected", "pending", "closed"}
	for i, id := range ids {
		wg.Add(1)
		go func(id int64, status string) {
			defer wg.Done()
			_, _ = f.usecase.ChangeStatus(context.Background(), ChangeStatusCommand{ProposalID: id, Status: status})
		}(id, statuses[i%len(statuses)])
	}
	for epoch := int64(15); epoch < 30; epoch += 3 {
		wg.Add(1)
		go func(epoch int64) {
			defer wg.Done()
			_, _ = f.usecase.CloseElapsedProposals(context.Background(), epoch, 0)
		}(epoch)
	}
	wg.Wait()

	assertCounterMatchesRows(t, f.store)
	counter, _ := f.store.GetStatusCounter(context.Background())
	if counter.Total() != int64(len(ids)) {
		t.Fatalf("expected counter total %d, got %d", len(ids), counter.Total())
	}
}

func TestRegisterAddressAndChangeRole(t *testing.T) {
	f := newFixture(t, 0)
	address, err := f.usecase.RegisterAddress(context.Background(), RegisterAddressCommand{
		WalletAddress: "account_new",
		VaultAddress:  "component_vault",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if address.Role != entities.RoleMember {
		t.Fatalf("expected default member role, got %s", address.Role)
	}
	if _, err := f.usecase.RegisterAddress(context.Background(), RegisterAddressCommand{
		WalletAddress: "account_new",
	}); !errors.Is(err, domainerrors.ErrAddressAlreadyRegistered) {
		t.Fatalf("expected duplicate wallet error, got %v", err)
	}

	updated, err := f.usecase.ChangeAddressRole(context.Background(), ChangeAddressRoleCommand{
		AddressID: address.AddressID,
		Role:      "a",
	})
	if err != nil {
		t.Fatalf("change role failed: %v", err)
	}
	if !updated.IsAdmin() {
		t.Fatalf("expected admin role, got %s", updated.Role)
	}
	if _, err := f.usecase.ChangeAddressRole(context.Background(), ChangeAddressRoleCommand{
		AddressID: address.AddressID,
		Role:      "owner",
	}); !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}
