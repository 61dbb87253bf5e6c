// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates cobra flags into the application's internal configuration and
// maps failures onto ExitError codes: 1 for an invalid project, 2 for a
// usage error.
package cli
