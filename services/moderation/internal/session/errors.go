package session

import "errors"

var (
	// ErrOutOfRange marks an index outside the store's bounds.
	ErrOutOfRange = errors.New("session: index out of range")

	// ErrNetworkUnavailable is returned when an operation is refused
	// before any remote call because the upstream is unreachable.
	ErrNetworkUnavailable = errors.New("session: network unavailable")

	// ErrConfirmRequired is returned when a trash moderation is
	// attempted without a confirmer.
	ErrConfirmRequired = errors.New("session: trash requires confirmation")
)
