package catalog

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestPropertyFindIgnoresCase(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		hashes := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[0-9A-F]{32}`), 1, 20, func(s string) string { return s },
		).Draw(t, "hashes")

		var buckets []Bucket
		for i, h := range hashes {
			id := string(rune('a' + i%3))
			if len(buckets) == 0 || buckets[len(buckets)-1].ID != id {
				buckets = append(buckets, Bucket{ID: id})
			}
			b := &buckets[len(buckets)-1]
			b.Entries = append(b.Entries, Entry{h: "dir/" + h + ".bin"})
		}
		c := New(buckets)

		h := rapid.SampledFrom(hashes).Draw(t, "query")
		upper, errU := c.Find(strings.ToUpper(h))
		lower, errL := c.Find(strings.ToLower(h))
		plain, errP := c.Find(h)
		if errU != nil || errL != nil || errP != nil {
			t.Fatalf("lookup failed: %v %v %v", errU, errL, errP)
		}
		if upper != lower || lower != plain {
			t.Fatalf("case changed result: %q %q %q", upper, lower, plain)
		}
	})
}
