/*
Package domain contains the core domain models for the bridge engine.

It defines the session record of one cross-chain transfer, the step and mode
enums, the per-mode transition tables, and the patch-apply function that is the
single mutation path for a session. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Session: the persisted snapshot of one transfer's progress.
  - Step: the FSM position (idle, approved, burned, attested, completed).
  - Mode: the execution path (standard wallet vs. smart account).
  - Patch: a partial update merged into a Session via Apply.
*/
package domain
