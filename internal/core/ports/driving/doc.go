// Package driving defines the interfaces through which external actors
// (CLI, MCP server) drive the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them; adapters consume them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driving
