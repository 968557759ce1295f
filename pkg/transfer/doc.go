/*
Package transfer implements the cross-chain transfer orchestrator.

An Orchestrator owns one transfer session and drives it through the
burn-and-mint sequence: approve, burn, await attestation, mint. Progress is
persisted after every step so a transfer survives process restarts and can be
resumed mid-flow by session ID. Execute is safe to call repeatedly until the
terminal step is reached; failed steps stay put and are retried on the next
call.

Two execution paths exist. Standard mode submits approve and burn as separate
wallet transactions and mints directly. Smart-account mode bundles approve and
burn into one user operation and delegates the mint to a relay service.
*/
package transfer
