package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	proposalengine "arcane/contexts/governance/proposal-engine"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	governancehttp "arcane/contexts/governance/proposal-engine/transport/http"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("governance-test-secret")

type stubMetadata struct {
	err error
}

func (m stubMetadata) Resolve(context.Context, string) (entities.ProposalMetadata, error) {
	if m.err != nil {
		return entities.ProposalMetadata{}, m.err
	}
	return entities.ProposalMetadata{Title: "Treasury split", CreatedBy: "council", EndEpochOffset: 100}, nil
}

type testEnv struct {
	server *Server
	module proposalengine.Module
	tokens HS256Tokens
	admin  entities.Address
	owner  entities.Address
	voter  entities.Address
}

func newTestEnv(t *testing.T, metadataErr error) testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := proposalengine.NewInMemoryModule([]entities.Address{
		{WalletAddress: "account_admin", Role: entities.RoleAdmin},
		{WalletAddress: "account_owner", Role: entities.RoleMember},
		{WalletAddress: "account_voter", Role: entities.RoleMember},
	}, stubMetadata{err: metadataErr}, nil, logger)

	tokens := HS256Tokens{Secret: testSecret, TTL: time.Hour}
	env := testEnv{
		server: New(module, tokens, logger, ":0"),
		module: module,
		tokens: tokens,
	}
	ctx := context.Background()
	var err error
	if env.admin, err = module.Handler.Addresses.GetAddressByWallet(ctx, "account_admin"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if env.owner, err = module.Handler.Addresses.GetAddressByWallet(ctx, "account_owner"); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	if env.voter, err = module.Handler.Addresses.GetAddressByWallet(ctx, "account_voter"); err != nil {
		t.Fatalf("seed voter: %v", err)
	}
	return env
}

func (e testEnv) token(t *testing.T, address entities.Address) string {
	t.Helper()
	signed, err := e.tokens.Issue(address)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return signed
}

func (e testEnv) do(t *testing.T, method string, path string, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
	if code == "" {
		return
	}
	if got := decodeBody[governancehttp.ErrorResponse](t, rr); got.Code != code {
		t.Fatalf("expected code %q, got %q", code, got.Code)
	}
}

func TestHealthzIsPublic(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, "/healthz", "", "")
	expectStatus(t, rr, http.StatusOK, "")
}

func TestGovernanceRoutesRequireBearerToken(t *testing.T) {
	env := newTestEnv(t, nil)
	cases := []struct {
		name   string
		method string
		path   string
	}{
		{name: "create", method: http.MethodPost, path: "/v1/proposals"},
		{name: "list", method: http.MethodGet, path: "/v1/proposals"},
		{name: "vote", method: http.MethodPost, path: "/v1/proposals/1/votes"},
		{name: "close", method: http.MethodPost, path: "/v1/proposals/close-elapsed"},
		{name: "register", method: http.MethodPost, path: "/v1/addresses"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, tc.method, tc.path, "", `{}`)
			expectStatus(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	}
}

func TestGovernanceRejectsForeignAndExpiredTokens(t *testing.T) {
	env := newTestEnv(t, nil)

	foreign := HS256Tokens{Secret: []byte("another-secret")}
	forged, err := foreign.Issue(env.owner)
	if err != nil {
		t.Fatalf("issue forged token: %v", err)
	}
	rr := env.do(t, http.MethodGet, "/v1/proposals", forged, "")
	expectStatus(t, rr, http.StatusUnauthorized, "unauthorized")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AddressID: env.owner.AddressID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	rr = env.do(t, http.MethodGet, "/v1/proposals", expired, "")
	expectStatus(t, rr, http.StatusUnauthorized, "unauthorized")

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{AddressID: env.admin.AddressID}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	rr = env.do(t, http.MethodGet, "/v1/proposals", noneAlg, "")
	expectStatus(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestGovernanceProposalLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	ownerToken := env.token(t, env.owner)
	voterToken := env.token(t, env.voter)
	adminToken := env.token(t, env.admin)

	rr := env.do(t, http.MethodPost, "/v1/proposals", ownerToken,
		`{"start_epoch":10,"metadata":"bafyproposal","votes":["yes","no"]}`)
	expectStatus(t, rr, http.StatusCreated, "")
	created := decodeBody[governancehttp.ProposalResponse](t, rr)
	if created.Status != "pending" || created.EndEpoch != 110 || created.OwnerID != env.owner.AddressID {
		t.Fatalf("unexpected proposal: %+v", created)
	}
	if created.Title != "Treasury split" {
		t.Fatalf("expected metadata title, got %q", created.Title)
	}

	votePath := "/v1/proposals/" + jsonNumber(created.ProposalID) + "/votes"
	rr = env.do(t, http.MethodPost, votePath, voterToken, `{"selected":"yes","amount":250}`)
	expectStatus(t, rr, http.StatusCreated, "")
	voter := decodeBody[governancehttp.VoterResponse](t, rr)
	if voter.Voter != "account_voter" || voter.Amount != 250 || voter.Withdrawn {
		t.Fatalf("unexpected voter: %+v", voter)
	}

	rr = env.do(t, http.MethodPost, votePath, voterToken, `{"selected":"no","amount":1}`)
	expectStatus(t, rr, http.StatusConflict, "already_voted")

	rr = env.do(t, http.MethodPost, votePath, adminToken, `{"selected":"maybe","amount":1}`)
	expectStatus(t, rr, http.StatusUnprocessableEntity, "invalid_choice_key")

	rr = env.do(t, http.MethodGet, "/v1/proposals/"+jsonNumber(created.ProposalID), voterToken, "")
	expectStatus(t, rr, http.StatusOK, "")
	detail := decodeBody[governancehttp.ProposalDetailResponse](t, rr)
	if detail.Proposal.Tally.AddressCount["yes"] != 1 || detail.Proposal.Tally.TokenAmount["yes"] != 250 {
		t.Fatalf("unexpected tally: %+v", detail.Proposal.Tally)
	}
	if len(detail.Voters) != 1 || detail.Owner.Address != "account_owner" {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	statusPath := "/v1/proposals/" + jsonNumber(created.ProposalID) + "/status"
	rr = env.do(t, http.MethodPut, statusPath, ownerToken, `{"status":"active"}`)
	expectStatus(t, rr, http.StatusForbidden, "forbidden")

	rr = env.do(t, http.MethodPut, statusPath, adminToken, `{"status":"archived"}`)
	expectStatus(t, rr, http.StatusUnprocessableEntity, "invalid_status")

	rr = env.do(t, http.MethodPut, statusPath, adminToken, `{"status":"active"}`)
	expectStatus(t, rr, http.StatusOK, "")

	rr = env.do(t, http.MethodGet, "/v1/proposals/counter?status=pending,active", voterToken, "")
	expectStatus(t, rr, http.StatusOK, "")
	if counter := decodeBody[governancehttp.CounterResponse](t, rr); counter.Count != 1 {
		t.Fatalf("expected one open proposal, got %+v", counter)
	}

	rr = env.do(t, http.MethodPost, "/v1/proposals/close-elapsed", adminToken, `{"epoch":109}`)
	expectStatus(t, rr, http.StatusOK, "")
	if closed := decodeBody[governancehttp.CloseElapsedResponse](t, rr); len(closed.Closed) != 0 {
		t.Fatalf("expected nothing to close before end epoch, got %+v", closed)
	}

	env.module.Store.SetEpoch(110)
	rr = env.do(t, http.MethodPost, "/v1/proposals/close-elapsed", adminToken, "")
	expectStatus(t, rr, http.StatusOK, "")
	closed := decodeBody[governancehttp.CloseElapsedResponse](t, rr)
	if closed.Epoch != 110 || len(closed.Closed) != 1 || closed.Closed[0].Status != "closed" {
		t.Fatalf("unexpected close result: %+v", closed)
	}

	rr = env.do(t, http.MethodGet, "/v1/proposals/counter/reconcile", adminToken, "")
	expectStatus(t, rr, http.StatusOK, "")
	drift := decodeBody[governancehttp.CounterDriftResponse](t, rr)
	if !drift.Consistent || drift.Counter["closed"] != 1 {
		t.Fatalf("unexpected drift report: %+v", drift)
	}

	rr = env.do(t, http.MethodPost, votePath+"/withdraw", voterToken, "")
	expectStatus(t, rr, http.StatusOK, "")
	if withdrawn := decodeBody[governancehttp.VoterResponse](t, rr); !withdrawn.Withdrawn {
		t.Fatalf("expected withdrawn voter, got %+v", withdrawn)
	}

	rr = env.do(t, http.MethodGet, "/v1/addresses/"+jsonNumber(env.voter.AddressID)+"/votes", voterToken, "")
	expectStatus(t, rr, http.StatusOK, "")
	if votes := decodeBody[governancehttp.VoterListResponse](t, rr); len(votes.Items) != 1 {
		t.Fatalf("expected one vote in history, got %+v", votes)
	}
}

func TestGovernanceMapsEngineErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ownerToken := env.token(t, env.owner)

	rr := env.do(t, http.MethodPost, "/v1/proposals", ownerToken, `{"start_epoch":10,"metadata":"bafy","votes":[]}`)
	expectStatus(t, rr, http.StatusBadRequest, "invalid_input")

	rr = env.do(t, http.MethodPost, "/v1/proposals", ownerToken, `{"start_epoch":10,"unknown":true}`)
	expectStatus(t, rr, http.StatusBadRequest, "invalid_json")

	rr = env.do(t, http.MethodPost, "/v1/proposals/999/votes", ownerToken, `{"selected":"yes","amount":1}`)
	expectStatus(t, rr, http.StatusNotFound, "proposal_not_found")

	rr = env.do(t, http.MethodPost, "/v1/proposals/abc/votes", ownerToken, `{"selected":"yes","amount":1}`)
	expectStatus(t, rr, http.StatusBadRequest, "invalid_proposal_id")

	rr = env.do(t, http.MethodPost, "/v1/proposals/1/votes/withdraw", ownerToken, "")
	expectStatus(t, rr, http.StatusNotFound, "voter_not_found")

	rr = env.do(t, http.MethodGet, "/v1/proposals?status=unknown", ownerToken, "")
	expectStatus(t, rr, http.StatusUnprocessableEntity, "invalid_status")
}

func TestGovernanceMetadataOutageIsBadGateway(t *testing.T) {
	env := newTestEnv(t, fmt.Errorf("%w: gateway timeout", domainerrors.ErrMetadataUnavailable))
	rr := env.do(t, http.MethodPost, "/v1/proposals", env.token(t, env.owner),
		`{"start_epoch":10,"metadata":"bafy","votes":["yes","no"]}`)
	expectStatus(t, rr, http.StatusBadGateway, "metadata_unavailable")
}

func TestGovernanceAddressRegistry(t *testing.T) {
	env := newTestEnv(t, nil)
	adminToken := env.token(t, env.admin)
	ownerToken := env.token(t, env.owner)

	rr := env.do(t, http.MethodPost, "/v1/addresses", ownerToken, `{"address":"account_new"}`)
	expectStatus(t, rr, http.StatusForbidden, "forbidden")

	rr = env.do(t, http.MethodPost, "/v1/addresses", adminToken, `{"address":"account_new"}`)
	expectStatus(t, rr, http.StatusCreated, "")
	registered := decodeBody[governancehttp.AddressResponse](t, rr)
	if registered.Role != "member" {
		t.Fatalf("expected member default, got %+v", registered)
	}

	rr = env.do(t, http.MethodPost, "/v1/addresses", adminToken, `{"address":"account_new"}`)
	expectStatus(t, rr, http.StatusConflict, "address_already_registered")

	rolePath := "/v1/addresses/" + jsonNumber(registered.AddressID) + "/role"
	rr = env.do(t, http.MethodPut, rolePath, adminToken, `{"role":"owner"}`)
	expectStatus(t, rr, http.StatusUnprocessableEntity, "invalid_role")

	rr = env.do(t, http.MethodPut, rolePath, adminToken, `{"role":"admin"}`)
	expectStatus(t, rr, http.StatusOK, "")

	rr = env.do(t, http.MethodGet, "/v1/addresses/admins", ownerToken, "")
	expectStatus(t, rr, http.StatusOK, "")
	if admins := decodeBody[governancehttp.AddressListResponse](t, rr); len(admins.Items) != 2 {
		t.Fatalf("expected two admins, got %+v", admins)
	}

	rr = env.do(t, http.MethodGet, "/v1/addresses/lookup?wallet=account_new", ownerToken, "")
	expectStatus(t, rr, http.StatusOK, "")
	if found := decodeBody[governancehttp.AddressResponse](t, rr); found.AddressID != registered.AddressID {
		t.Fatalf("unexpected lookup result: %+v", found)
	}

	rr = env.do(t, http.MethodGet, "/v1/addresses/lookup?wallet=account_missing", ownerToken, "")
	expectStatus(t, rr, http.StatusNotFound, "not_found")
}

func TestAdminRouteRejectsUnregisteredCaller(t *testing.T) {
	env := newTestEnv(t, nil)
	ghost := env.token(t, entities.Address{AddressID: 404, WalletAddress: "account_ghost", Role: entities.RoleAdmin})
	rr := env.do(t, http.MethodPut, "/v1/proposals/1/status", ghost, `{"status":"active"}`)
	expectStatus(t, rr, http.StatusUnauthorized, "unauthorized")
}

func jsonNumber(value int64) string {
	raw, _ := json.Marshal(value)
	return string(raw)
}
