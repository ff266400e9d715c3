// Package tracking allocates the human-readable, date-scoped tracking
// identifiers printed on booking slips: EX-<MON>-<DD>-<NNN>.
//
// The sequence policy (Prefix, Sequence, NextSequence, Format) is pure and
// works on a snapshot of identifiers already issued. Allocator adds the
// serialization discipline: allocations sharing a prefix run one at a time
// in-process, and optionally across processes through a Locker, while the
// storage layer's unique index on the identifier stays the final backstop.
package tracking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IDPrefix starts every tracking identifier.
const IDPrefix = "EX-"

// Prefix returns the day-scoped prefix for t, e.g. "EX-SEP-05-". The caller
// decides the time zone by converting t first.
func Prefix(t time.Time) string {
	return IDPrefix + strings.ToUpper(t.Format("Jan")) + "-" + t.Format("02") + "-"
}

// Sequence parses the numeric suffix of id under prefix. Identifiers with a
// different prefix or a non-numeric suffix report false.
func Sequence(id, prefix string) (int, bool) {
	suffix, ok := strings.CutPrefix(id, prefix)
	if !ok || suffix == "" {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextSequence returns one past the highest sequence found in issued, or 1.
func NextSequence(prefix string, issued []string) int {
	highest := 0
	for _, id := range issued {
		if n, ok := Sequence(id, prefix); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// Format renders prefix plus seq zero-padded to three digits.
func Format(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}
