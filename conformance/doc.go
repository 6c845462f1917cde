// Package conformance checks an unbounded stream of SCRU64 identifiers
// against the invariants of the scheme.
//
// Each input line flows through a fixed chain of stages:
//
//	decode -> SequenceValidator -> FreshnessChecker -> Aggregator -> observers
//
// A Pipeline owns every stage and runs them on a single goroutine, so none of
// the types in this package need locking. Memory use is constant: the
// sequence validator keeps only the previous identifier, skew statistics are
// updated incrementally, and the Aggregator retains at most the first and the
// last K violation records while counting all of them exactly.
//
// Violations never stop the stream unless their Kind is in the halt set
// passed through Options.HaltOn.
package conformance
