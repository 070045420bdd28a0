package menu

import "sort"

// Item is one configured node of the navigation tree. Visible maps
// affordance keys (buttons, exports, imports) to the permissions that reveal
// them; an empty permission list reveals the key to everyone who can see the
// node.
type Item struct {
	Path        string              `json:"path"`
	Name        string              `json:"name"`
	Component   string              `json:"component,omitempty"`
	Visible     map[string][]string `json:"-"`
	Permissions []string            `json:"-"`
	Children    []Item              `json:"-"`
}

// FilteredItem is a node the user is allowed to see. Visible carries only the
// affordance keys that survived filtering.
type FilteredItem struct {
	Path      string         `json:"path"`
	Name      string         `json:"name"`
	Component string         `json:"component,omitempty"`
	Visible   []string       `json:"visible"`
	Children  []FilteredItem `json:"children"`
}

func anyGranted(codes []string, hasPerm func(string) bool) bool {
	for _, code := range codes {
		if hasPerm(code) {
			return true
		}
	}
	return false
}

func filterVisible(visible map[string][]string, hasPerm func(string) bool) []string {
	keys := make([]string, 0, len(visible))
	for key, codes := range visible {
		if len(codes) == 0 || anyGranted(codes, hasPerm) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Filter returns the subtree of items the user can see. The input tree is
// never mutated; hasPerm is called once per distinct permission reference.
func Filter(items []Item, hasPerm func(code string) bool) []FilteredItem {
	result := make([]FilteredItem, 0, len(items))

	for _, item := range items {
		hasConfiguredChildren := len(item.Children) > 0
		children := Filter(item.Children, hasPerm)

		keep := false
		if len(item.Permissions) > 0 {
			keep = anyGranted(item.Permissions, hasPerm) || len(children) > 0
		} else {
			keep = !hasConfiguredChildren || len(children) > 0
		}
		if !keep {
			continue
		}

		result = append(result, FilteredItem{
			Path:      item.Path,
			Name:      item.Name,
			Component: item.Component,
			Visible:   filterVisible(item.Visible, hasPerm),
			Children:  children,
		})
	}

	return result
}
