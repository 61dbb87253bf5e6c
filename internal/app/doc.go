// Package app contains the application lifecycle: it loads project
// definitions through the configured loaders, declares parameters and
// templates, assembles build types in the builder and hands the frozen
// ResolvedProject to the export, snapshot and serve operations. It is
// decoupled from any specific entrypoint such as the CLI.
package app
