package detect

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mj1618/deskctl/internal/model"
)

// Candidate is one element proposed by a reasoning model.
type Candidate struct {
	Label       string    `json:"label"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Rect        []float64 `json:"rect"`
	Confidence  *float64  `json:"confidence"`
	Derivation  string    `json:"derivation"`
	DerivedFrom string    `json:"derived_from"`
}

// DisplayLabel prefers label and falls back to name.
func (c Candidate) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// ToRect rounds the candidate rect. It fails unless there are exactly four
// finite numbers describing a non-empty area.
func (c Candidate) ToRect() (model.Rect, bool) {
	if len(c.Rect) != 4 {
		return model.Rect{}, false
	}
	var r model.Rect
	for i, v := range c.Rect {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Rect{}, false
		}
		r[i] = int(math.Round(v))
	}
	if r.Empty() {
		return model.Rect{}, false
	}
	return r, true
}

var errNoArray = errors.New("no JSON array in response")

// ExtractJSONArray returns the outermost JSON array in text. Markdown code
// fences and prose around the array are ignored.
func ExtractJSONArray(text string) (string, error) {
	text = stripFences(strings.TrimSpace(text))
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", errNoArray
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON array in response")
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// ParseCandidates decodes a model answer into candidates.
func ParseCandidates(answer string) ([]Candidate, error) {
	raw, err := ExtractJSONArray(answer)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	return out, nil
}
