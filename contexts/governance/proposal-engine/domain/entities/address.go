package entities

import (
	"strings"
	"time"

	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole also accepts the single-letter forms "a" and "m".
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "a":
		return RoleAdmin, nil
	case "member", "m":
		return RoleMember, nil
	default:
		return "", domainerrors.ErrInvalidRole
	}
}

type Address struct {
	AddressID     int64
	WalletAddress string
	Role          Role
	VaultAddress  string
	CreatedAt     time.Time
}

func (a Address) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Address) IsMember() bool {
	return a.Role == RoleMember
}
