// Package guard switches the binaries into test mode when imported by a test.
package guard

import "os"

func init() {
	if _, ok := os.LookupEnv("COURSEMART_TEST_MODE"); !ok {
		_ = os.Setenv("COURSEMART_TEST_MODE", "1")
	}
}
