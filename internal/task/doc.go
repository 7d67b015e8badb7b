// Package task implements the bounded, priority-aware task queue and its
// fixed-size worker pool. The queue owns retry with exponential backoff,
// status counters, and drain-on-shutdown; task payloads are opaque to it.
//
// Capacity covers a task's whole lifetime: a task holds its slot from
// submission until it reaches a terminal state, including time spent waiting
// on a retry timer, so queued+running never exceeds the configured capacity.
package task
