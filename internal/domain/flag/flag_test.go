package flag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessages_FiltersInfoAndPreservesOrder(t *testing.T) {
	flags := []Flag{
		New(SeverityInfo, "informational only"),
		New(SeverityWarning, "first"),
		New(SeverityCritical, "second"),
		New(SeverityFail, "third"),
	}

	assert.Equal(t, []string{"first", "second", "third"}, Messages(flags))
}

func TestWithExplanation_DoesNotMutateReceiver(t *testing.T) {
	f := New(SeverityWarning, "msg")
	explained := f.WithExplanation("because")

	assert.Empty(t, f.Explanation)
	assert.Equal(t, "because", explained.Explanation)
}
