// Package params provides the parameter registry: named, typed configuration
// parameters with defaults, display metadata and an emptiness constraint,
// resolved across a chain of scopes.
//
// There are two scope levels. The project scope holds the project-wide
// declarations; every build type gets its own narrower scope whose parent is
// the project. Resolution walks from the narrowest scope to the widest and
// returns the first value found, where at each level an override wins over
// that level's declared default. Overrides never touch the declaration they
// shadow.
//
// Values are carried as cty.Value so the declared kind maps onto a cty type:
// text and enum parameters are cty.String, boolean parameters are cty.Bool.
//
// The registry is safe for concurrent use. After Freeze every mutation fails
// with a *configerr.FrozenStateError while reads keep working.
package params
