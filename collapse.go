package main

import (
	"sort"
	"strings"
)

// sentinel sorts before every real key and is a prefix of none.
const sentinel = "\x00"

// Collapse sorts entries by key and drops every entry that is a subdomain
// or exact repeat of an entry kept before it, returning the minimal list
// and the number dropped.
//
// Reversal turns "is a subdomain of" into "has as a prefix" and the key
// separator keeps example.com from swallowing notexample.com. After the
// sort a parent key always precedes the keys of its subdomains, so a
// single scan against the last kept key is enough regardless of the
// order entries were admitted in.
func Collapse(entries Entries) (Entries, int) {
	dropped := 0
	out := collapse(entries, func(Entry) {
		dropped++
	})

	return out, dropped
}

// collapse calls drop for every redundant entry.
func collapse(entries Entries, drop func(Entry)) Entries {
	sorted := make(Entries, len(entries))
	copy(sorted, entries)
	sort.Stable(sorted)

	out := make(Entries, 0, len(sorted))
	previous := sentinel
	for _, e := range sorted {
		if strings.HasPrefix(e.Key, previous) {
			drop(e)
			continue
		}

		out = append(out, e)
		previous = e.Key
	}

	return out
}
