/*
Package ports defines the driven ports (interfaces) for the bridge engine.

These interfaces decouple the orchestrator from external implementations,
allowing it to work with various storage backends and chain clients.

# Key Interfaces

  - SessionStore: persists and loads transfer session records.
  - ChainAdapter: performs the atomic chain operations the engine sequences.
*/
package ports
