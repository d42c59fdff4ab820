package test

import (
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/logger"
)

func AssertEqual(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		t.Fatalf("%v != %v", observed, expected)
	}
}

func SourceForTest(contents string) logger.Source {
	return logger.Source{
		Index:          0,
		AbsolutePath:   "<stdin>",
		PrettyPath:     "<stdin>",
		Contents:       contents,
		IdentifierName: "stdin",
	}
}
