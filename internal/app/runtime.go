package app

import (
	"os"
	"strconv"
)

// TestModeEnv disables network side effects in the binaries when truthy.
const TestModeEnv = "COURSEMART_TEST_MODE"

// InTestMode reports whether COURSEMART_TEST_MODE is set to a true value.
// Unparseable values count as false.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}
