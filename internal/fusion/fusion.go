// Package fusion merges element lists from several detectors into one
// indexed list, dropping spatial duplicates.
package fusion

import "github.com/mj1618/deskctl/internal/model"

// DefaultThreshold is the IoU above which a candidate counts as a duplicate.
const DefaultThreshold = 0.1

// Merge keeps every primary element in order, then walks each additional
// source in order. A candidate with a rect is dropped when its IoU with any
// already-accepted rect (including ones accepted from earlier additional
// sources) is strictly greater than threshold. Candidates without a rect are
// always kept. The result is renumbered 1..N.
//
// Merge is order-sensitive: swapping additional sources can change which of
// two overlapping candidates survives.
func Merge(primary []model.Element, additional [][]model.Element, threshold float64) []model.Element {
	total := len(primary)
	for _, src := range additional {
		total += len(src)
	}
	accepted := make([]model.Element, 0, total)
	accepted = append(accepted, primary...)

	var rects []model.Rect
	for _, el := range primary {
		if el.Rect != nil {
			rects = append(rects, *el.Rect)
		}
	}

	for _, src := range additional {
		for _, cand := range src {
			if cand.Rect == nil {
				accepted = append(accepted, cand)
				continue
			}
			if overlapsAny(*cand.Rect, rects, threshold) {
				continue
			}
			accepted = append(accepted, cand)
			rects = append(rects, *cand.Rect)
		}
	}

	for i := range accepted {
		accepted[i].Index = i + 1
	}
	return accepted
}

func overlapsAny(r model.Rect, rects []model.Rect, threshold float64) bool {
	for _, o := range rects {
		if r.IoU(o) > threshold {
			return true
		}
	}
	return false
}
