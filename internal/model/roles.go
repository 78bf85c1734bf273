package model

import "strings"

// DefaultCategories is the allow-list of native control categories that are
// worth indexing. Everything else in the accessibility tree is skipped.
var DefaultCategories = []string{
	"Button", "Edit", "TabItem", "Document", "ListItem", "MenuItem",
	"ScrollBar", "TreeItem", "Hyperlink", "ComboBox", "RadioButton",
	"CheckBox", "Slider", "Spinner", "DataItem", "Custom", "Group",
	"HeaderItem", "Header", "SplitButton", "MenuBar", "ToolBar", "Text",
	"Pane", "Window", "Table", "TitleBar", "Image", "List", "DataGrid",
	"Tree", "Tab",
}

// RoleMap maps macOS AXRole values to control categories.
var RoleMap = map[string]string{
	"AXButton":       "Button",
	"AXPopUpButton":  "ComboBox",
	"AXComboBox":     "ComboBox",
	"AXStaticText":   "Text",
	"AXLink":         "Hyperlink",
	"AXImage":        "Image",
	"AXTextField":    "Edit",
	"AXTextArea":     "Edit",
	"AXCheckBox":     "CheckBox",
	"AXSwitch":       "CheckBox",
	"AXRadioButton":  "RadioButton",
	"AXSlider":       "Slider",
	"AXIncrementor":  "Spinner",
	"AXMenuBar":      "MenuBar",
	"AXMenuItem":     "MenuItem",
	"AXMenuBarItem":  "MenuItem",
	"AXTabGroup":     "Tab",
	"AXList":         "List",
	"AXTable":        "Table",
	"AXOutline":      "Tree",
	"AXRow":          "DataItem",
	"AXCell":         "DataItem",
	"AXGroup":        "Group",
	"AXSplitGroup":   "Pane",
	"AXScrollArea":   "Pane",
	"AXScrollBar":    "ScrollBar",
	"AXToolbar":      "ToolBar",
	"AXWebArea":      "Document",
	"AXWindow":       "Window",
}

// MapRole converts a raw accessibility role to a control category. Values
// that are already categories pass through; anything else is "Custom".
func MapRole(role string) string {
	if cat, ok := RoleMap[role]; ok {
		return cat
	}
	if IsCategory(role, DefaultCategories) {
		return canonicalCategory(role)
	}
	return "Custom"
}

// CategorySet builds a case-insensitive lookup set.
func CategorySet(categories []string) map[string]bool {
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[strings.ToLower(c)] = true
	}
	return set
}

// IsCategory reports whether category is in the list, ignoring case.
func IsCategory(category string, categories []string) bool {
	for _, c := range categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

func canonicalCategory(category string) string {
	for _, c := range DefaultCategories {
		if strings.EqualFold(c, category) {
			return c
		}
	}
	return category
}
