package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/reasoning"
)

// DefaultMinConfidence drops inferred elements the model is unsure about.
const DefaultMinConfidence = 0.7

const defaultInferredType = "InferredElement"

// StructuralDetector runs the native detector and asks a text model to infer
// elements hidden from the accessibility tree. A failed inference degrades
// to the native result; a failed native read fails the detector.
type StructuralDetector struct {
	Native        *NativeDetector
	Reasoner      reasoning.Reasoner
	MinConfidence float64
}

func (d *StructuralDetector) Kind() model.Kind { return model.KindInferred }

func (d *StructuralDetector) Detect(ctx context.Context, window model.Window) (Result, error) {
	res, err := d.Native.Detect(ctx, window)
	if err != nil {
		return Result{}, err
	}
	if len(res.Elements) == 0 {
		return res, nil
	}

	inferred, err := d.infer(ctx, res.Elements)
	if err != nil {
		res.Degraded = fmt.Errorf("structural inference: %w", err)
		return res, nil
	}
	res.Elements = renumber(append(res.Elements, inferred...))
	return res, nil
}

func (d *StructuralDetector) infer(ctx context.Context, native []model.Element) ([]model.Element, error) {
	answer, err := d.Reasoner.Complete(ctx, reasoning.Prompt{Text: structuralPrompt + FormatControlTable(native)})
	if err != nil {
		return nil, err
	}
	candidates, err := ParseCandidates(answer)
	if err != nil {
		return nil, err
	}

	var out []model.Element
	for _, c := range candidates {
		if c.Confidence == nil || *c.Confidence < d.MinConfidence {
			continue
		}
		r, ok := c.ToRect()
		if !ok {
			continue
		}
		typ := c.Type
		if typ == "" {
			typ = defaultInferredType
		}
		out = append(out, model.Element{
			Kind:       model.KindInferred,
			Label:      c.DisplayLabel(),
			Type:       typ,
			Rect:       &r,
			Confidence: model.ConfidencePtr(*c.Confidence),
		})
	}
	return out, nil
}

// FormatControlTable renders elements one per line as
// [index] [type] "label" rect=[l, t, r, b].
func FormatControlTable(elements []model.Element) string {
	var sb strings.Builder
	for _, el := range elements {
		rect := "none"
		if el.Rect != nil {
			rect = el.Rect.String()
		}
		fmt.Fprintf(&sb, "[%d] [%s] %q rect=%s\n", el.Index, el.Type, el.Label, rect)
	}
	return sb.String()
}
