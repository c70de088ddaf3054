package common

import "fmt"

// SHAssert panics with msg when condition is false. Ported from the
// teacher's SH_Assert; used at the page-format layer where a violated
// invariant means on-disk corruption rather than a recoverable error.
func SHAssert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}

// SHAssertf is SHAssert with a formatted message.
func SHAssertf(condition bool, format string, a ...interface{}) {
	if !condition {
		panic(fmt.Sprintf(format, a...))
	}
}
