package test

import (
	"strings"
	"testing"
)

func AssertEqualWithDiff(t *testing.T, observed string, expected string) {
	t.Helper()
	if observed == expected {
		return
	}

	observedLines := strings.Split(observed, "\n")
	expectedLines := strings.Split(expected, "\n")
	var sb strings.Builder

	max := len(observedLines)
	if len(expectedLines) > max {
		max = len(expectedLines)
	}
	for i := 0; i < max; i++ {
		var observedLine, expectedLine string
		if i < len(observedLines) {
			observedLine = observedLines[i]
		}
		if i < len(expectedLines) {
			expectedLine = expectedLines[i]
		}
		if observedLine == expectedLine {
			sb.WriteString("  " + observedLine + "\n")
			continue
		}
		if i < len(expectedLines) {
			sb.WriteString("- " + expectedLine + "\n")
		}
		if i < len(observedLines) {
			sb.WriteString("+ " + observedLine + "\n")
		}
	}

	t.Fatalf("observed does not match expected:\n%s", sb.String())
}
