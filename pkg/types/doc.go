// Package types defines the frame and slot model, the tagged slot value,
// run records, the Journal interface, and the standard errors shared by
// the knowledge base, inference engine and explanation packages.
//
// A Frame is a named node in a single-inheritance forest linked through its
// structural AKO slot. Slots are typed (INTEGER, TEXT, BOOLEAN, FRAME, LIST),
// optionally restricted to a set of permissible values, and may carry
// IF-NEEDED, IF-ADDED and IF-REMOVED procedures.
package types
