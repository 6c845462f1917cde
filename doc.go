// Package scru64 decodes SCRU64 identifiers and provides the building blocks
// for checking that a stream of them is conformant.
//
// SCRU64 is a 64-bit, time-ordered identifier scheme whose canonical textual
// form is 12 base-36 digits. Because the text is fixed-length and the digits
// sort in the same order as their values, lexicographic order of the text and
// numeric order of the decoded integer always coincide. This makes the
// identifiers suitable for:
//   - Database primary keys stored as text or BIGINT
//   - Log and event streams that must sort by creation time
//   - Any scenario where a compact, sortable identifier is preferred over UUIDs
//
// Basic Usage:
//
//	// Decode an identifier
//	id, err := scru64.Parse("0u375nxqh5cq")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(id.Timestamp(), id.NodeCtr())
//
//	// Decoding errors are typed
//	var de *scru64.DecodeError
//	if errors.As(err, &de) {
//	    fmt.Println(de.Kind, de.Line)
//	}
//
// Layout:
//
// The decoded value splits into two fields:
//   - 40-bit timestamp, in units of 256 milliseconds since the Unix epoch
//   - 24-bit node_ctr, holding a generator-defined node id and a counter
//
// The streaming checker built on top of this package lives in the
// conformance and report packages, and the command line tool in
// cmd/scru64-test.
package scru64
