// Package daemon hosts the long-running service: a single-instance lock, the
// interval scheduler that launches daily content runs, the stale-workflow
// sweeper, and the HTTP API used for status, manual runs, and approval-link
// redemption.
package daemon
