// Package points implements the staff points and rank progression core:
// the ordered rank table, the violation catalog, and the engine that applies
// point deltas to member records.
//
// The package is pure: every operation takes a Member value in and returns a
// new Member value out. Persistence and per-member write serialization belong
// to the caller.
package points
