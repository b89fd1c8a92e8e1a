package service

import (
	"errors"
	"strings"
)

func isKind(err, kind error) bool {
	return errors.Is(err, kind)
}

// distinct returns ids without duplicates, in first-seen order.
func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// blank reports whether s has no visible characters.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
