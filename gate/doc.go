// Package gate implements the retry and validation layer between the turn
// scheduler and the agent adapters. Every adapter result passes through
// structural checks (and, for story text, the non-repetition check) before
// it may be merged into session state; failures are retried with exponential
// backoff up to a bounded attempt count, feeding the rejection reason back
// into the next attempt's instructions.
//
// Outcomes flow as core.ValidationResult values through ordinary control
// flow. Only the exhaustion of the attempt budget is terminal, and even that
// is a result, not an error; the scheduler decides what it means for the run.
package gate
