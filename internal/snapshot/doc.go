// Package snapshot persists registry state for restart recovery.
//
// A snapshot is the flat list of market registrations plus the poll
// resumption cursor and an export timestamp. Two stores implement the
// same contract: an atomic JSON file (the default) and an optional
// Postgres table pair for deployments that already run a database.
package snapshot
