// Package featurekind maps feature kind tags (for example
// `triggerBuildFeature` or `schedule`) to the validators that know what
// parameters such a feature needs.
//
// Kinds are contributed by modules, the same way handlers are contributed to
// a runtime registry: each module implements Module and registers its kinds
// on startup. Features of a kind nobody registered are opaque and accepted
// as-is; the CI runtime is the authority on them.
package featurekind
