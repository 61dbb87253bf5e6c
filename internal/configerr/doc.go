// Package configerr defines the error taxonomy shared by the parameter
// registry, the template resolver and the build graph builder.
//
// Declaration-time errors (duplicates, type mismatches) are returned directly
// by the call that introduced them. Graph-level errors (unresolved references,
// collisions, cycles) are collected during validation and returned together
// inside a single *ValidationError.
package configerr
