// Package categorize assigns transactions to spending buckets, preferring
// user-taught merchant memory and falling back to a generative model.
package categorize

import "strings"

// Buckets is the canonical closed bucket set. Order matters for display and
// for seeding defaults.
var Buckets = []string{
	"Home & Utilities",
	"Groceries",
	"Dining & Coffee",
	"Subscriptions",
	"Health",
	"Transport",
	"Fun & Travel",
	"One-Off & Big Hits",
}

// ChunkSize is the max unique descriptions per model call. Larger chunks make
// the model drop or reorder items.
const ChunkSize = 20

var bucketSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Buckets))
	for _, b := range Buckets {
		set[b] = struct{}{}
	}
	return set
}()

// IsValidBucket reports whether name is in the closed bucket set. Matching is
// exact; the model is prompted with the canonical names.
func IsValidBucket(name string) bool {
	_, ok := bucketSet[name]
	return ok
}

// NormalizeMerchant produces the merchant-memory key for a description:
// trimmed and lowercased, nothing more. Two visually different descriptions
// only collide when they are the same string modulo case and edges.
func NormalizeMerchant(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}
