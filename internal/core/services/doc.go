// Package services implements the core batch transformation logic.
//
// The Processor drives a bounded worker pool over the enumerated work,
// the Invoker wraps each remote recognition call with classified retries
// and exponential backoff, the Engine runs the two-tier classification
// strategy, and the Aggregator keeps the run's counters.
//
// Services depend only on domain types and driven ports; every adapter
// is injected at construction.
package services
