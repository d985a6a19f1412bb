package effects

import (
	"errors"
)

// ErrNoRegistry is raised when a cancellation effect runs in a context that
// carries no registry, i.e. outside of a store.
var ErrNoRegistry = errors.New("no cancellation registry registered for this effect")

// ErrContractViolation marks an effect that broke its emission contract.
// It is raised as a panic; the runtime does not guess intent.
var ErrContractViolation = errors.New("effect contract violation")
