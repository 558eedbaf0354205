// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package tenhou

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterKyokus removes rounds for which keep returns false, in place.
// Survivors stay in document order. Removing every round is valid; the
// rest of the log is untouched.
func (l *Log) FilterKyokus(keep func(kyokuNum, honba int) bool) {
	kept := l.Kyokus[:0]
	for _, k := range l.Kyokus {
		if keep(k.Meta.KyokuNum, k.Meta.Honba) {
			kept = append(kept, k)
		}
	}
	l.Kyokus = kept
}

// RoundFilter selects rounds by kyoku number and honba. Build one with
// ParseRoundFilter and pass its Test method to FilterKyokus.
type RoundFilter struct {
	entries []filterEntry
}

type filterEntry struct {
	kyokuNum int
	honba    int
	anyHonba bool
}

// ParseRoundFilter parses a comma-separated round filter expression.
// Each element is a wind letter (E, S, or W), a round number 1..4, and
// an optional ".honba" suffix: "E1" matches East 1 at any honba,
// "S3.2" matches South 3 honba 2 only.
func ParseRoundFilter(expr string) (*RoundFilter, error) {
	f := &RoundFilter{}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("round filter: empty element in %q", expr)
		}
		entry, err := parseFilterEntry(part)
		if err != nil {
			return nil, fmt.Errorf("round filter: %w", err)
		}
		f.entries = append(f.entries, entry)
	}
	return f, nil
}

func parseFilterEntry(part string) (filterEntry, error) {
	var base int
	switch part[0] {
	case 'E':
		base = 0
	case 'S':
		base = 4
	case 'W':
		base = 8
	default:
		return filterEntry{}, fmt.Errorf("%q: wind must be E, S, or W", part)
	}

	numPart, honbaPart, hasHonba := strings.Cut(part[1:], ".")
	num, err := strconv.Atoi(numPart)
	if err != nil || num < 1 || num > 4 {
		return filterEntry{}, fmt.Errorf("%q: round number must be 1..4", part)
	}

	entry := filterEntry{kyokuNum: base + num - 1, anyHonba: true}
	if hasHonba {
		honba, err := strconv.Atoi(honbaPart)
		if err != nil || honba < 0 {
			return filterEntry{}, fmt.Errorf("%q: honba must be a non-negative number", part)
		}
		entry.honba = honba
		entry.anyHonba = false
	}
	return entry, nil
}

// Test reports whether a round with the given kyoku number and honba
// passes the filter.
func (f *RoundFilter) Test(kyokuNum, honba int) bool {
	for _, e := range f.entries {
		if e.kyokuNum != kyokuNum {
			continue
		}
		if e.anyHonba || e.honba == honba {
			return true
		}
	}
	return false
}
