package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
)

// DefaultMaxElements caps how many native controls are indexed per window.
const DefaultMaxElements = 500

// NativeDetector reads the accessibility tree and keeps allow-listed
// control categories.
type NativeDetector struct {
	Accessor    platform.Accessor
	Categories  []string
	MaxElements int
}

func (d *NativeDetector) Kind() model.Kind { return model.KindNative }

func (d *NativeDetector) Detect(ctx context.Context, window model.Window) (Result, error) {
	controls, err := d.Accessor.Enumerate(ctx, window)
	if err != nil {
		return Result{}, fmt.Errorf("enumerate %q: %w", window.Title, err)
	}

	categories := d.Categories
	if len(categories) == 0 {
		categories = model.DefaultCategories
	}
	allowed := model.CategorySet(categories)
	limit := d.MaxElements
	if limit <= 0 {
		limit = DefaultMaxElements
	}

	elements := make([]model.Element, 0, min(len(controls), limit))
	for _, c := range controls {
		if len(elements) >= limit {
			break
		}
		if c.Handle == nil || !allowed[strings.ToLower(c.Type)] {
			continue
		}
		elements = append(elements, model.Element{
			Kind:   model.KindNative,
			Label:  c.Label,
			Type:   c.Type,
			Rect:   c.Rect,
			Handle: c.Handle,
		})
	}
	return Result{Elements: renumber(elements)}, nil
}
