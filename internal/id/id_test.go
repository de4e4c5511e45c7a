package id_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/id"
)

func TestNewReference(t *testing.T) {
	at := time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("AEST", 10*3600))

	ref := id.NewReference(at)

	// The date component is the UTC date, not the local one.
	assert.Regexp(t, regexp.MustCompile(`^rec-20240301-[0-9a-f]{6}$`), ref)
}

func TestNewReference_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := id.NewReference(now)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestParseReference(t *testing.T) {
	at, err := id.ParseReference("rec-20240301-a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), at)
}

func TestParseReference_Invalid(t *testing.T) {
	for _, ref := range []string{"", "rec-", "txn-20240301-a1b2c3", "rec-notadate-a1b2c3"} {
		_, err := id.ParseReference(ref)
		assert.Error(t, err, "reference %q", ref)
	}
}
