/*
Package ident enforces the identifier grammars used throughout a project
definition and extracts parameter references from string values.

Entity ids (projects, build types, templates) follow the external id
format: a letter followed by letters, digits or underscores, at most 225
characters, e.g. `TrainingWheels__Build`. Feature ids are looser and may
contain dots and hyphens, e.g. `trigger_gradle-functional_publish`.
Parameter names are dot-separated segments, e.g. `env.PUBLISHED_JAVA_GROUP`.

Parameter references inside values use the `%name%` syntax; `%%` is a
literal percent sign.
*/
package ident
