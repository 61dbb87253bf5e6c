// Package export renders a frozen builder.ResolvedProject in a form an
// external CI runtime can ingest: JSON, YAML or HCL.
//
// All three encodings are produced from the same Document, so they carry
// the same information: the project header, project-scope parameters,
// project features and every build type with its composed steps, features,
// triggers and resolved parameters. Parameter references such as
// `%git_main_branch%` are left in place; the CI runtime expands them.
package export
