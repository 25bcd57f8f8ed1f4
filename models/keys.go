// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "strings"

// FoldName lower-cases s and collapses whitespace runs to single spaces.
// Lookups compare folded keys written at insert time because SQLite's
// LOWER() only folds ASCII.
func FoldName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// SearchKey is the stored search column of a queue row: the folded first
// name, last name and barangay, one per line so a term never spans fields.
func SearchKey(firstName, lastName, barangay string) string {
	return FoldName(firstName) + "\n" + FoldName(lastName) + "\n" + FoldName(barangay)
}
