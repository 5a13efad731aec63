package view

import (
	"math/rand/v2"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/olivier-w/presto/internal/catalog"
)

// Row is one visible track. Matched holds the rune offsets of the display
// string that matched the filter query, in ascending order.
type Row struct {
	ID      catalog.TrackID
	Matched []int
}

// Project derives the visible order from the catalog display strings.
// With shuffle, the whole catalog is permuted by seed before filtering,
// so survivors keep their relative order while the seed is unchanged.
// Matching is a case-insensitive fuzzy subsequence match on the trimmed
// query; an empty query keeps every track.
func Project(displays []string, query string, shuffle bool, seed uint64) []Row {
	order := Order(len(displays), shuffle, seed)

	q := strings.TrimSpace(query)
	if q == "" {
		rows := make([]Row, len(order))
		for i, idx := range order {
			rows[i] = Row{ID: catalog.TrackID(idx)}
		}
		return rows
	}

	matched := make(map[int][]int)
	for _, m := range fuzzy.FindNoSort(q, displays) {
		matched[m.Index] = runeOffsets(m.Str, m.MatchedIndexes)
	}
	rows := make([]Row, 0, len(matched))
	for _, idx := range order {
		if pos, ok := matched[idx]; ok {
			rows = append(rows, Row{ID: catalog.TrackID(idx), Matched: pos})
		}
	}
	return rows
}

// Order returns catalog indices in natural or seeded shuffled order.
func Order(n int, shuffle bool, seed uint64) []int {
	if !shuffle {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		return order
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return r.Perm(n)
}

// IDs extracts the track ids of rows.
func IDs(rows []Row) []catalog.TrackID {
	ids := make([]catalog.TrackID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

// runeOffsets converts the byte offsets reported by the matcher into rune
// offsets for rendering.
func runeOffsets(s string, byteOffsets []int) []int {
	if len(byteOffsets) == 0 {
		return nil
	}
	out := make([]int, 0, len(byteOffsets))
	next := 0
	runeIdx := 0
	for b := range s {
		for next < len(byteOffsets) && byteOffsets[next] == b {
			out = append(out, runeIdx)
			next++
		}
		runeIdx++
	}
	if len(out) == len(byteOffsets) {
		return out
	}
	return byteOffsets
}
