// Command scru64-test reads SCRU64 identifiers from standard input, one per
// line, and checks that the stream is strictly ordered and fresh.
//
// Usage:
//
//	any-command-that-prints-identifiers-infinitely | scru64-test [flags]
package main

import (
	"bufio"
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	stdout := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { _ = stdout.Flush() })

	atexit.Exit(execute(os.Args[1:], os.Stdin, stdout, os.Stderr))
}
