// Package templates resolves template references and composes the steps and
// features of a build type from the templates it applies.
//
// A template is either local (declared in the project, with steps and
// features) or external. External templates live in another project and are
// known only by id: the resolver validates their grammar and otherwise treats
// them as opaque. Ids that are neither registered locally nor as external
// placeholders are looked up in an optional Catalog.
package templates
