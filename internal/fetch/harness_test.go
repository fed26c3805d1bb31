package fetch

import (
	"testing"

	"fetchq/internal/model"
)

func testJob(url, kind, quality string) model.Job {
	return model.NewJob(url, model.Variant{Kind: kind, Quality: quality}, 3)
}

func assertContainsPair(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return
		}
	}
	t.Fatalf("args %v missing %s %s", args, flag, value)
}
