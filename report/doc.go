// Package report renders conformance results: one line per violation as it
// happens, a periodic or final summary table, and the process exit status.
package report
