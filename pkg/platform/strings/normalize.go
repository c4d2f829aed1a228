// Package strings provides free-text normalization shared by lookups and search.
package strings

import (
	"strings"
)

// CollapseSpace trims s and collapses internal whitespace runs to one space.
//
//	CollapseSpace("  Desa   Sukamaju ") // "Desa Sukamaju"
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldKey is CollapseSpace plus lowercasing; use it to compare user input
// against reference names case-insensitively.
func FoldKey(s string) string {
	return strings.ToLower(CollapseSpace(s))
}

// ContainsFold reports whether needle occurs in haystack ignoring case and
// whitespace differences. An empty needle matches everything.
func ContainsFold(haystack, needle string) bool {
	n := FoldKey(needle)
	if n == "" {
		return true
	}
	return strings.Contains(FoldKey(haystack), n)
}
