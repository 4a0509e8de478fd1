// Package models defines the database schema for the stock reconciliation
// feature: batches, authoritative stock outcomes, learned normalization
// rules, and persisted circuit breaker states.
package models
