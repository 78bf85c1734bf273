package model

import "strings"

// FilterByText keeps elements whose label contains text (case-insensitive).
// Indices are left untouched so they still resolve in the full snapshot.
func FilterByText(elements []Element, text string) []Element {
	if text == "" {
		return elements
	}
	textLower := strings.ToLower(text)
	var result []Element
	for _, el := range elements {
		if strings.Contains(strings.ToLower(el.Label), textLower) {
			result = append(result, el)
		}
	}
	return result
}

// FilterByType keeps elements whose type is one of types (case-insensitive).
func FilterByType(elements []Element, types []string) []Element {
	if len(types) == 0 {
		return elements
	}
	set := CategorySet(types)
	var result []Element
	for _, el := range elements {
		if set[strings.ToLower(el.Type)] {
			result = append(result, el)
		}
	}
	return result
}

// FilterByKind keeps elements produced by the given detector kind.
func FilterByKind(elements []Element, kind Kind) []Element {
	if kind == "" {
		return elements
	}
	var result []Element
	for _, el := range elements {
		if el.Kind == kind {
			result = append(result, el)
		}
	}
	return result
}
