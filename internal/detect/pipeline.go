package detect

import (
	"context"
	"fmt"

	"github.com/mj1618/deskctl/internal/fusion"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/sirupsen/logrus"
)

// Pipeline runs one primary detector and any number of additional ones, then
// fuses their output. Failure severity is decided here, by role: a primary
// failure is hard, everything else is soft.
type Pipeline struct {
	Primary    Detector
	Additional []Detector
	Threshold  float64
	Log        logrus.FieldLogger
}

// Run detects and fuses elements for window. Only a primary failure is
// returned; soft failures are logged.
func (p *Pipeline) Run(ctx context.Context, window model.Window) ([]model.Element, error) {
	res, err := p.Primary.Detect(ctx, window)
	if err != nil {
		return nil, model.Classify(model.KindHardDetector, fmt.Sprintf("%s detection", p.Primary.Kind()), err)
	}
	if res.Degraded != nil {
		p.soft(p.Primary, res.Degraded)
	}

	var extra [][]model.Element
	for _, d := range p.Additional {
		r, err := d.Detect(ctx, window)
		if err != nil {
			p.soft(d, err)
			continue
		}
		if r.Degraded != nil {
			p.soft(d, r.Degraded)
		}
		extra = append(extra, r.Elements)
	}

	elements := fusion.Merge(res.Elements, extra, p.Threshold)
	p.logger().WithFields(logrus.Fields{
		"window":   window.Title,
		"primary":  len(res.Elements),
		"elements": len(elements),
	}).Debug("detection finished")
	return elements, nil
}

// Kinds lists the detector kinds in run order.
func (p *Pipeline) Kinds() []model.Kind {
	kinds := []model.Kind{p.Primary.Kind()}
	for _, d := range p.Additional {
		kinds = append(kinds, d.Kind())
	}
	return kinds
}

func (p *Pipeline) soft(d Detector, err error) {
	p.logger().
		WithField("detector", d.Kind()).
		WithError(model.NewError(model.KindSoftDetector, string(d.Kind()), err)).
		Warn("detector failed, continuing without it")
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}
