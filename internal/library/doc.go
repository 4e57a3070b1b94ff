// Package library implements the in-memory music library: typed entity
// collections keyed by monotonically assigned IDs, the commit engine that
// validates and applies change requests while maintaining the revision-
// numbered change log, the client-side reconciler that replays committed
// changes in strict revision order, and JSON snapshot serialization.
//
// Entities reference each other only by ID, never by pointer, so a library
// can be serialized and rebuilt without fixups. All cross-entity invariants
// are enforced by Commit; the raw collections never validate relationships
// themselves.
package library
