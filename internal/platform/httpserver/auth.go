package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid bearer token")

// Claims carry the address resolved by the login flow. Role is advisory;
// admin routes re-read the role from the address registry.
type Claims struct {
	AddressID int64  `json:"address_id"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier turns a raw bearer token into claims.
type TokenVerifier interface {
	Verify(raw string) (Claims, error)
}

// HS256Tokens signs and verifies HMAC-SHA256 tokens with one shared secret.
type HS256Tokens struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (t HS256Tokens) Verify(raw string) (Claims, error) {
	if len(t.Secret) == 0 {
		return Claims{}, fmt.Errorf("%w: verifier has no secret", errInvalidToken)
	}
	var claims Claims
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if t.Now != nil {
		options = append(options, jwt.WithTimeFunc(t.Now))
	}
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, options...)
	if err != nil || !token.Valid {
		return Claims{}, errInvalidToken
	}
	if claims.AddressID <= 0 {
		return Claims{}, fmt.Errorf("%w: missing address_id", errInvalidToken)
	}
	return claims, nil
}

// Issue signs a token for an address. The login flow and tests use it.
func (t HS256Tokens) Issue(address entities.Address) (string, error) {
	now := time.Now().UTC()
	if t.Now != nil {
		now = t.Now()
	}
	ttl := t.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := Claims{
		AddressID: address.AddressID,
		Role:      string(address.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address.WalletAddress,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

// requireCaller writes 401 and returns false when the request carries no
// valid bearer token.
func (s *Server) requireCaller(w http.ResponseWriter, r *http.Request) (Claims, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
		return Claims{}, false
	}
	if s.tokens == nil {
		writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", "token verification is not configured")
		return Claims{}, false
	}
	claims, err := s.tokens.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		s.logger.Warn("bearer token rejected",
			"event", "http_auth_rejected",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", "bearer token is invalid or expired")
		return Claims{}, false
	}
	return claims, true
}

// requireAdmin authenticates the caller and checks the registry role, so a
// demotion takes effect before the token expires.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (Claims, bool) {
	claims, ok := s.requireCaller(w, r)
	if !ok {
		return Claims{}, false
	}
	address, err := s.governance.Handler.Addresses.GetAddress(r.Context(), claims.AddressID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", "caller address is not registered")
		return Claims{}, false
	}
	if err != nil {
		writeGovernanceDomainError(w, err)
		return Claims{}, false
	}
	if !address.IsAdmin() {
		writeGovernanceError(w, http.StatusForbidden, "forbidden", "admin role is required")
		return Claims{}, false
	}
	return claims, true
}
