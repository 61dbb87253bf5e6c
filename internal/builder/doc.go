// Package builder assembles build types into a validated, immutable project.
//
// # Why Builder Exists
//
// Parameters, templates and build types are declared independently and may
// refer to each other in any order. The builder is the single place where the
// whole graph is checked at once, so that a project handed to the CI runtime
// never contains a dangling reference.
//
// # Responsibilities
//
//   - **Registration:** collect build types and project-level features, rejecting
//     duplicate ids immediately.
//   - **Validation:** run every graph-level check and aggregate all violations
//     into one *configerr.ValidationError instead of stopping at the first.
//   - **Freezing:** on success, freeze the parameter registry and the template
//     resolver and produce a ResolvedProject.
//
// # How It Works
//
// Validate walks every build type and checks, in order:
//  1. **Templates:** each template reference resolves (local, external or catalog).
//  2. **Composition:** template features do not collide unless overridable.
//  3. **Feature ids:** own features, and separately triggers, have unique ids.
//  4. **References:** every `%name%` in step, feature and trigger params resolves
//     in the build type's scope. Names under runtime prefixes such as
//     `teamcity.` are supplied by the CI server and skipped.
//  5. **Kinds:** features of a registered kind pass that kind's validator.
//  6. **Dependencies:** depends_on targets exist and form no cycle.
//  7. **Parameters:** every parameter visible in the build type has a value,
//     except prompt parameters which the CI server asks for.
//
// # State
//
// A builder starts Unvalidated. A successful Validate moves it to Validated;
// any later mutation moves it back. Build freezes it. A frozen builder rejects
// every mutation with *configerr.FrozenStateError and keeps returning the same
// ResolvedProject from Build.
package builder
