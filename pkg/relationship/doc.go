// Package relationship talks to the Star Access employee-relationship
// service and maps relationship data onto logistics role codes.
//
// A user's relationship snapshot groups entries by kind (departments, roles,
// levels, positions). The rule table in mapping.go grants a role when any of
// its rule sets is satisfied: every kind named by the rule set must intersect
// the snapshot. Rule sets within a role are OR, kinds within a rule set are
// AND, values within a kind are OR. An empty rule set matches everyone,
// including users the upstream service has never heard of.
package relationship
