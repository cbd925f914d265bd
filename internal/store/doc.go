// Package store persists blog workflows in SQLite and enforces their
// lifecycle.
//
// The Store manages database connections, schema initialization, and the
// status transition graph. Status changes go through Transition, which
// performs a conditional update so concurrent writers cannot skip or repeat
// states, and approval token redemption goes through ConsumeApprovalToken,
// a compare-and-set that guarantees a token is honored at most once.
//
// Treat this package as the single source of truth for workflow lifecycle
// semantics; when you add new statuses or fields, update schema.sql and bump
// schemaVersion.
package store
