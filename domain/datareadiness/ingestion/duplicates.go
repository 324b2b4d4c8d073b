package ingestion

import (
	"tabprep/domain/core"
)

// DuplicateGrouper buckets records by content hash and confirms membership
// with full equality, so hash collisions never merge distinct records.
type DuplicateGrouper struct {
	buckets map[core.RecordHash][]int // hash -> group positions
	groups  [][]int
	heads   []Record
}

// NewDuplicateGrouper creates an empty grouper
func NewDuplicateGrouper() *DuplicateGrouper {
	return &DuplicateGrouper{buckets: make(map[core.RecordHash][]int)}
}

// Add files record i and reports whether it repeats an earlier record
func (g *DuplicateGrouper) Add(i int, rec Record) bool {
	h := rec.Hash()
	for _, pos := range g.buckets[h] {
		if g.heads[pos].Equal(rec) {
			g.groups[pos] = append(g.groups[pos], i)
			return true
		}
	}
	g.buckets[h] = append(g.buckets[h], len(g.groups))
	g.groups = append(g.groups, []int{i})
	g.heads = append(g.heads, rec)
	return false
}

// Duplicates returns groups with more than one member, in first-seen order
func (g *DuplicateGrouper) Duplicates() [][]int {
	out := [][]int{}
	for _, grp := range g.groups {
		if len(grp) > 1 {
			out = append(out, append([]int(nil), grp...))
		}
	}
	return out
}
