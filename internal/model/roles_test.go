package model

import "testing"

func TestMapRole_KnownRoles(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"AXButton", "Button"},
		{"AXStaticText", "Text"},
		{"AXLink", "Hyperlink"},
		{"AXTextField", "Edit"},
		{"AXTextArea", "Edit"},
		{"AXCheckBox", "CheckBox"},
		{"AXMenuItem", "MenuItem"},
		{"AXTabGroup", "Tab"},
		{"AXTable", "Table"},
		{"AXWebArea", "Document"},
		{"AXWindow", "Window"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := MapRole(tt.input)
			if got != tt.want {
				t.Errorf("MapRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapRole_CategoryPassthrough(t *testing.T) {
	if got := MapRole("button"); got != "Button" {
		t.Errorf("MapRole(button) = %q, want Button", got)
	}
	if got := MapRole("AXProgressIndicator"); got != "Custom" {
		t.Errorf("MapRole(AXProgressIndicator) = %q, want Custom", got)
	}
}

func TestDefaultCategories_NoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range DefaultCategories {
		if seen[c] {
			t.Errorf("duplicate category %q", c)
		}
		seen[c] = true
	}
	for ax, cat := range RoleMap {
		if !IsCategory(cat, DefaultCategories) {
			t.Errorf("RoleMap[%q] = %q is not an allowed category", ax, cat)
		}
	}
}
