package health

import "errors"

var (
	// ErrNotResolved reports that bootstrap has not produced Properties.
	ErrNotResolved = errors.New("health: configuration not resolved")

	// ErrCheckTimeout is set on the Result of a check that outlived the
	// aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: no checker registered under that name")
)
