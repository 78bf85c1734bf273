package detect

import (
	"fmt"

	"github.com/mj1618/deskctl/internal/fusion"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
	"github.com/mj1618/deskctl/internal/reasoning"
	"github.com/sirupsen/logrus"
)

// Config selects detectors and their tuning. It is comparable so callers can
// cheaply tell whether a rebuild is needed.
type Config struct {
	Structural    bool    `yaml:"structural"     json:"structural"`
	Visual        bool    `yaml:"visual"         json:"visual"`
	Threshold     float64 `yaml:"iou_threshold"  json:"iou_threshold"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
	MaxElements   int     `yaml:"max_elements"   json:"max_elements"`
}

// DefaultConfig is native-only detection with default tuning.
func DefaultConfig() Config {
	return Config{
		Threshold:     fusion.DefaultThreshold,
		MinConfidence: DefaultMinConfidence,
		MaxElements:   DefaultMaxElements,
	}
}

// Validate rejects out-of-range tuning.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return model.Errorf(model.KindConfiguration, "detector config", "iou threshold %v outside [0, 1]", c.Threshold)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return model.Errorf(model.KindConfiguration, "detector config", "min confidence %v outside [0, 1]", c.MinConfidence)
	}
	if c.MaxElements < 0 {
		return model.Errorf(model.KindConfiguration, "detector config", "max elements %d is negative", c.MaxElements)
	}
	return nil
}

func (c Config) String() string {
	name := "native"
	if c.Structural {
		name = "structural"
	}
	if c.Visual {
		name += "+visual"
	}
	return name
}

// Deps are the collaborators detectors are built from. Reasoners may be nil
// when no credentials are configured.
type Deps struct {
	Accessor       platform.Accessor
	Screenshotter  platform.Screenshotter
	TextReasoner   reasoning.Reasoner
	VisionReasoner reasoning.Reasoner
	Categories     []string
	Log            logrus.FieldLogger
}

// Build assembles a Pipeline for cfg.
func Build(cfg Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Accessor == nil {
		return nil, model.Errorf(model.KindConfiguration, "build detectors", "no accessibility backend")
	}

	native := &NativeDetector{
		Accessor:    deps.Accessor,
		Categories:  deps.Categories,
		MaxElements: cfg.MaxElements,
	}
	p := &Pipeline{Primary: native, Threshold: cfg.Threshold, Log: deps.Log}

	if cfg.Structural {
		if deps.TextReasoner == nil {
			return nil, model.NewError(model.KindConfiguration, "build detectors",
				fmt.Errorf("structural detection needs a reasoning service: %w", reasoning.ErrNoAPIKey))
		}
		p.Primary = &StructuralDetector{
			Native:        native,
			Reasoner:      deps.TextReasoner,
			MinConfidence: cfg.MinConfidence,
		}
	}
	if cfg.Visual {
		if deps.VisionReasoner == nil {
			return nil, model.NewError(model.KindConfiguration, "build detectors",
				fmt.Errorf("visual detection needs a reasoning service: %w", reasoning.ErrNoAPIKey))
		}
		if deps.Screenshotter == nil {
			return nil, model.Errorf(model.KindConfiguration, "build detectors", "visual detection needs a screenshot backend")
		}
		p.Additional = append(p.Additional, &VisualDetector{
			Screenshotter: deps.Screenshotter,
			Reasoner:      deps.VisionReasoner,
		})
	}
	return p, nil
}
