package model

import (
	"crypto/sha256"
	"fmt"
)

// Move records an element whose identity survived a refresh but whose rect
// or index changed.
type Move struct {
	Label     string `yaml:"label"                    json:"label"`
	Type      string `yaml:"type"                     json:"type"`
	FromIndex int    `yaml:"from_index"               json:"from_index"`
	ToIndex   int    `yaml:"to_index"                 json:"to_index"`
	FromRect  *Rect  `yaml:"from_rect,omitempty,flow" json:"from_rect,omitempty"`
	ToRect    *Rect  `yaml:"to_rect,omitempty,flow"   json:"to_rect,omitempty"`
}

// SnapshotDiff is the result of comparing two snapshots by content hash.
type SnapshotDiff struct {
	Added          []Element `yaml:"added,omitempty"   json:"added,omitempty"`
	Removed        []Element `yaml:"removed,omitempty" json:"removed,omitempty"`
	Moved          []Move    `yaml:"moved,omitempty"   json:"moved,omitempty"`
	UnchangedCount int       `yaml:"unchanged_count"   json:"unchanged_count"`
}

// Empty reports whether nothing changed.
func (d SnapshotDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Moved) == 0
}

// ElementHash is a stable identity for an element across refreshes, where
// indices shift freely. Position is deliberately excluded so moves are
// reported as moves.
func ElementHash(el Element) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", el.Kind, el.Type, el.Label)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// DiffElements compares two element lists. Elements with equal hashes are
// paired in order of appearance.
func DiffElements(prev, curr []Element) SnapshotDiff {
	pending := make(map[string][]Element, len(prev))
	for _, el := range prev {
		h := ElementHash(el)
		pending[h] = append(pending[h], el)
	}

	var diff SnapshotDiff
	for _, el := range curr {
		h := ElementHash(el)
		queue := pending[h]
		if len(queue) == 0 {
			diff.Added = append(diff.Added, el)
			continue
		}
		old := queue[0]
		pending[h] = queue[1:]
		if old.Index != el.Index || !sameRect(old.Rect, el.Rect) {
			diff.Moved = append(diff.Moved, Move{
				Label:     el.Label,
				Type:      el.Type,
				FromIndex: old.Index,
				ToIndex:   el.Index,
				FromRect:  old.Rect,
				ToRect:    el.Rect,
			})
			continue
		}
		diff.UnchangedCount++
	}

	// Whatever was not consumed disappeared, reported in previous order.
	for _, el := range prev {
		h := ElementHash(el)
		if queue := pending[h]; len(queue) > 0 && queue[0].Index == el.Index {
			diff.Removed = append(diff.Removed, el)
			pending[h] = queue[1:]
		}
	}
	return diff
}

// DiffSnapshots compares two snapshots. A nil prev reports everything as added.
func DiffSnapshots(prev, curr *Snapshot) SnapshotDiff {
	var p, c []Element
	if prev != nil {
		p = prev.elements
	}
	if curr != nil {
		c = curr.elements
	}
	return DiffElements(p, c)
}

func sameRect(a, b *Rect) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
