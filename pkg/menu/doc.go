// Package menu filters the navigation tree by the permissions a user holds.
//
// Visibility walks children first. A node that declares permissions survives
// when the user holds any of them or any child survived; a node without
// permissions survives when it is a leaf or any child survived. Affordance
// keys (buttons inside a page) survive when their permission list is empty or
// any listed permission is held.
package menu
