package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrUnauthorized             = errors.New("address is unregistered")
	ErrForbidden                = errors.New("address lacks the required role")
	ErrAlreadyVoted             = errors.New("address already voted on this proposal")
	ErrInvalidChoiceKey         = errors.New("choice key is not defined by the proposal")
	ErrInvalidInput             = errors.New("invalid governance input")
	ErrInvalidStatus            = errors.New("invalid proposal status")
	ErrInvalidRole              = errors.New("role must be admin or member")
	ErrMetadataUnavailable      = errors.New("proposal metadata unavailable")
	ErrTransactionFailed        = errors.New("governance transaction failed")
	ErrAddressAlreadyRegistered = errors.New("address is already registered")
	ErrEpochUnavailable         = errors.New("current epoch unavailable")
)

// Specific lookups stay distinguishable while still matching ErrNotFound.
var (
	ErrProposalNotFound     = fmt.Errorf("proposal %w", ErrNotFound)
	ErrVoterNotFound        = fmt.Errorf("voter %w", ErrNotFound)
	ErrAddressNotFound      = fmt.Errorf("address %w", ErrNotFound)
	ErrAddressNotRegistered = fmt.Errorf("address is not registered: %w", ErrNotFound)
)

var domainErrors = []error{
	ErrNotFound,
	ErrUnauthorized,
	ErrForbidden,
	ErrAlreadyVoted,
	ErrInvalidChoiceKey,
	ErrInvalidInput,
	ErrInvalidStatus,
	ErrInvalidRole,
	ErrMetadataUnavailable,
	ErrTransactionFailed,
	ErrAddressAlreadyRegistered,
	ErrEpochUnavailable,
}

// IsDomain reports whether err carries one of the sentinels above.
func IsDomain(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// TransactionFailed tags a storage-layer abort. The outcome of such a call is
// ambiguous to the caller.
func TransactionFailed(err error) error {
	if err == nil || errors.Is(err, ErrTransactionFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
}

// RetrySafe reports whether the failed call is known to have left no state
// behind. TransactionFailed needs a reconciliation check before any retry.
func RetrySafe(err error) bool {
	if err == nil {
		return true
	}
	return !errors.Is(err, ErrTransactionFailed)
}
