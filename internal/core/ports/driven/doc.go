// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - PatternStore: Learned pattern arena (lookup / record outcome / feedback)
//   - IssueLog: Append-only log of hallucination occurrences
//   - Blocklist: Known fabricated phrases, grown from the issue log
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PatternPersister: Durable pattern storage behind the arena. Without it,
//     learned patterns live only for the process lifetime.
//   - PayloadDecoder: Decodes recognizer payloads. Only needed by the
//     CLI and MCP adapters that read files.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
