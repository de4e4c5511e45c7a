// Package id mints public reconciliation references.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const suffixBytes = 3

// NewReference returns a reference like "rec-20250103-a1b2c3".
func NewReference(t time.Time) string {
	buf := make([]byte, suffixBytes)
	rand.Read(buf)
	return fmt.Sprintf("rec-%s-%s", t.UTC().Format("20060102"), hex.EncodeToString(buf))
}

// ParseReference extracts the creation date from a reference.
func ParseReference(ref string) (time.Time, error) {
	parts := strings.SplitN(ref, "-", 3)
	if len(parts) != 3 || parts[0] != "rec" {
		return time.Time{}, fmt.Errorf("invalid reference format: %q", ref)
	}

	t, err := time.Parse("20060102", parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date in reference %q: %w", ref, err)
	}
	return t, nil
}
