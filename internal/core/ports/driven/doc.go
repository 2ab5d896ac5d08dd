// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - WorkSource: Enumerates processable exam pages from a directory tree
//   - Recognizer: Converts a page image into text via a remote service
//   - ResultStore: Deduplicated persistence of per-page outcomes
//   - CompletionGate: Idempotence check for already-finished items
//   - RecognitionCache: Durable sidecar cache for recognised text
//
// # Optional Interfaces
//
//   - Classifier: Remote AI category assignment. When nil (or disabled),
//     classification degrades to the local rule-based fallback.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
