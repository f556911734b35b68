// Package memory provides the in-memory key-value store behind the
// Cachelet server.
//
// A single mutex guards both the entry map and the time-ordered expiration
// index, so the two can never drift apart. Expired keys are reclaimed by a
// per-store background reaper that sleeps until the earliest tracked
// deadline and is woken early whenever a write introduces a sooner one;
// reads that race ahead of the reaper fall back to lazy eviction.
package memory
