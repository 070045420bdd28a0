package relationship

import "sort"

// Entry is one named relation a user holds, e.g. a department or a job level.
type Entry struct {
	Name string `json:"name"`
}

// Snapshot is a user's full relationship data keyed by relation kind.
type Snapshot map[string][]Entry

// RuleSet maps relation kinds to the values that satisfy them. All kinds in
// the set must be satisfied; any one listed value satisfies its kind. The
// empty rule set is satisfied unconditionally.
type RuleSet map[string][]string

// Mapping assigns each role code the rule sets that grant it. A role is
// granted when any of its rule sets is satisfied.
type Mapping map[string][]RuleSet

// Names returns the set of names the snapshot holds for one relation kind.
// A nil snapshot or missing kind yields the empty set.
func (s Snapshot) Names(kind string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, entry := range s[kind] {
		if entry.Name != "" {
			names[entry.Name] = struct{}{}
		}
	}
	return names
}

func matches(rule RuleSet, snapshot Snapshot) bool {
	for kind, wanted := range rule {
		names := snapshot.Names(kind)
		found := false
		for _, value := range wanted {
			if _, ok := names[value]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Grants reports whether the snapshot satisfies any rule set of the role.
// Unknown role codes are never granted.
func (m Mapping) Grants(code string, snapshot Snapshot) bool {
	rules, ok := m[code]
	if !ok {
		return false
	}
	for _, rule := range rules {
		if matches(rule, snapshot) {
			return true
		}
	}
	return false
}

// Evaluate returns the sorted role codes the snapshot maps onto. It is pure:
// the same mapping and snapshot always produce the same result.
func Evaluate(mapping Mapping, snapshot Snapshot) []string {
	var codes []string
	for code := range mapping {
		if mapping.Grants(code, snapshot) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
