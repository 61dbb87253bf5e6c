package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/pipedef/internal/app"
	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitInvalid = 1
	ExitUsage   = 2
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// options are the flags shared by every command that loads a project.
type options struct {
	format    string
	catalogs  []string
	envFiles  []string
	sets      []string
	logLevel  string
	logFormat string
	dbPath    string
}

// Execute runs the command line. Command output goes to stdout, logs to
// stderr. Any failure is returned as an *ExitError.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return toExitError(cmd.ExecuteContext(ctx))
}

// NewRootCmd builds the pipedef command tree.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "pipedef",
		Short: "Typed configuration engine for CI pipeline definitions",
		Long:  "pipedef loads HCL or YAML project definitions, validates parameters, templates and build types, and exports the resolved project.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.format, "format", app.FormatAuto, "Input format: auto, hcl or yaml.")
	flags.StringSliceVar(&opts.catalogs, "catalog", nil, "YAML file listing templates owned by other projects. Repeatable.")
	flags.StringSliceVar(&opts.envFiles, "env-file", nil, "Dotenv file applied as project parameter overrides. Repeatable.")
	flags.StringArrayVar(&opts.sets, "set", nil, "Project parameter override as name=value. Repeatable.")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Logging level: debug, info, warn or error.")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log output format: text or json.")
	flags.StringVar(&opts.dbPath, "db", "pipedef.db", "SQLite database holding snapshots.")

	root.AddCommand(
		newValidateCmd(opts),
		newExportCmd(opts),
		newSnapshotCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pipedef %s (commit: %s)\n", Version, Commit)
		},
	}
}

// usageArgs reports a positional argument error from fn as a usage error.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError("%v", err)
		}
		return nil
	}
}

// pathArgs requires at least one project path.
func pathArgs(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return usageError("at least one project path is required")
	}
	return nil
}

// newApp validates the shared flags and builds an App for the given paths.
func (o *options) newApp(cmd *cobra.Command, paths []string, addr string) (*app.App, error) {
	logFormat := strings.ToLower(o.logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, usageError("invalid log-format: must be 'text' or 'json'")
	}
	logLevel := strings.ToLower(o.logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	cfg, err := app.NewConfig(app.Config{
		Paths:     paths,
		Format:    o.format,
		Catalogs:  o.catalogs,
		EnvFiles:  o.envFiles,
		Sets:      o.sets,
		LogFormat: logFormat,
		LogLevel:  logLevel,
		DBPath:    o.dbPath,
		Addr:      addr,
	})
	if err != nil {
		return nil, usageError("%v", err)
	}
	return app.NewApp(cmd.ErrOrStderr(), cfg), nil
}

// load builds the App and its project.
func (o *options) load(cmd *cobra.Command, paths []string, addr string) (*app.App, error) {
	a, err := o.newApp(cmd, paths, addr)
	if err != nil {
		return nil, err
	}
	if _, err := a.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return a, nil
}

// toExitError maps any error onto an *ExitError.
func toExitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	var verr *configerr.ValidationError
	if errors.As(err, &verr) {
		return &ExitError{Code: ExitInvalid, Message: verr.Error()}
	}
	return &ExitError{Code: ExitInvalid, Message: err.Error()}
}
