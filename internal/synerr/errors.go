package synerr

import "errors"

// Sentinel errors. quadstore, uridict and vectorindex wrap ErrInvalidInput
// and ErrStorage, and authtoken wraps ErrPermissionDenied; hybridstore,
// reasoner and namespace pass them through. Callers use errors.Is to
// classify failures; wrap with fmt.Errorf("...: %w", err) to add context.
var (
	// ErrNotFound classifies a namespace, uri, vector key, or quad pattern
	// match that does not exist. No package in this module returns it.
	ErrNotFound = errors.New("synerr: not found")

	// ErrInvalidInput is returned for malformed triples, empty vectors,
	// dimension mismatches, or malformed SPARQL.
	ErrInvalidInput = errors.New("synerr: invalid input")

	// ErrDependency classifies an optional external dependency (Redis,
	// NATS) that is configured but unreachable. No package in this module
	// returns it; events and lock report such failures as plain errors.
	ErrDependency = errors.New("synerr: dependency unavailable")

	// ErrStorage is returned for durable-storage failures (bbolt, disk).
	ErrStorage = errors.New("synerr: storage failure")

	// ErrPermissionDenied is returned by internal/authtoken when a token
	// lacks the namespace or operation permission requested.
	ErrPermissionDenied = errors.New("synerr: permission denied")
)
