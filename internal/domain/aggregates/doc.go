// Package aggregates defines domain-facing aggregate contracts.
//
// Contracts avoid persistence and transport details. Each one is a write boundary
// where progress, points and badge invariants are enforced atomically.
package aggregates
