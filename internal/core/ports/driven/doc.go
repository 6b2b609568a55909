// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentHost: The live document being searched and mutated. This is
//     the abstraction over the word-processing host's object model; all
//     range search, read, replace, insert, and tracking operations go
//     through it.
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SessionStore: Review session persistence. Without it, applied-state
//     lives only in memory and batches are not resumable.
//   - ConfigStore: Tuning overrides. Without it, defaults apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
