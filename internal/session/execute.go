package session

import (
	"context"
	"fmt"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
	"github.com/sirupsen/logrus"
)

// Outcome describes what an indexed action did.
type Outcome struct {
	Index   int             `yaml:"index"              json:"index"`
	Element model.Element   `yaml:"element"            json:"element"`
	Action  platform.Action `yaml:"action"             json:"action"`
	// Fallback is set when the action was performed at a screen point
	// because the element has no native handle.
	Fallback bool         `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	Point    *model.Point `yaml:"point,omitempty"    json:"point,omitempty"`
	Text     string       `yaml:"text,omitempty"     json:"text,omitempty"`
	// Visible and Enabled are reported by query_state.
	Visible bool `yaml:"visible,omitempty" json:"visible,omitempty"`
	Enabled bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// Execute resolves index in the current snapshot and performs action on it.
// Elements without a handle are acted on at the center of their rect: set_text
// becomes a click followed by typing, and reads and state queries fail.
func (s *Session) Execute(ctx context.Context, index int, action platform.Action, params platform.ActionParams) (Outcome, error) {
	if s.State() != Ready {
		return Outcome{}, model.Errorf(model.KindConfiguration, string(action), "no current state; run state first")
	}
	target, err := s.snapshot.Resolve(index)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Index: index, Element: target.Element, Action: action}
	log := s.log.WithFields(logrus.Fields{"index": index, "action": action})

	if target.HasHandle() {
		res, err := s.perform(ctx, platform.Target{Handle: target.Handle}, action, params)
		if err != nil {
			return out, err
		}
		out.Text = res.Text
		out.Visible, out.Enabled = res.Visible, res.Enabled
		log.Debug("performed on handle")
		return out, nil
	}

	p := *target.Point
	out.Fallback = true
	out.Point = &p
	at := platform.Target{Point: &p}
	if action.ReadsOnly() {
		return out, model.Errorf(model.KindAction, string(action), "element %d (%s) has no native handle to read from", index, target.Element.Kind)
	}
	switch action {
	case platform.ActionSetText:
		if _, err := s.perform(ctx, at, platform.ActionClick, platform.ActionParams{}); err != nil {
			return out, err
		}
		if _, err := s.perform(ctx, at, platform.ActionTypeText, platform.ActionParams{Text: params.Text}); err != nil {
			return out, err
		}
	default:
		res, err := s.perform(ctx, at, action, params)
		if err != nil {
			return out, err
		}
		out.Text = res.Text
	}
	log.WithField("point", p).Debug("performed at point")
	return out, nil
}

// ExecuteAt performs action at a screen point in the bound window.
func (s *Session) ExecuteAt(ctx context.Context, p model.Point, action platform.Action, params platform.ActionParams) (platform.ActionResult, error) {
	if s.window == nil {
		return platform.ActionResult{}, model.Errorf(model.KindConfiguration, string(action), "no window bound; focus a window first")
	}
	return s.perform(ctx, platform.Target{Point: &p}, action, params)
}

// ExecuteGlobal performs an untargeted action, such as typing or a key
// combo, in the bound window.
func (s *Session) ExecuteGlobal(ctx context.Context, action platform.Action, params platform.ActionParams) (platform.ActionResult, error) {
	if s.window == nil {
		return platform.ActionResult{}, model.Errorf(model.KindConfiguration, string(action), "no window bound; focus a window first")
	}
	return s.perform(ctx, platform.Target{}, action, params)
}

func (s *Session) perform(ctx context.Context, target platform.Target, action platform.Action, params platform.ActionParams) (platform.ActionResult, error) {
	if s.provider.Executor == nil {
		return platform.ActionResult{}, model.NewError(model.KindConfiguration, string(action), platform.ErrUnsupported)
	}
	res, err := s.provider.Executor.Perform(ctx, target, action, params)
	if err != nil {
		return res, model.Classify(model.KindAction, string(action), fmt.Errorf("%s: %w", target, err))
	}
	return res, nil
}
