// Package finding provides the canonical vulnerability finding type
// shared by all test runners, plus the aggregator that deduplicates
// findings by fingerprint.
//
// Runners construct Findings through New so every finding gets an ID
// and a fingerprint; the engine feeds the combined slice through
// Aggregate before handing it to the caller.
package finding
