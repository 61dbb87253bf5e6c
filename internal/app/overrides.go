package app

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/specialistvlad/pipedef/internal/ctxlog"
	"github.com/specialistvlad/pipedef/internal/params"
)

// applyInvocationOverrides applies the env files and then the --set values
// as project-scope overrides, so a --set wins over an env file entry.
func (a *App) applyInvocationOverrides(ctx context.Context, reg *params.Registry) error {
	logger := ctxlog.FromContext(ctx)

	if len(a.config.EnvFiles) > 0 {
		env, err := godotenv.Read(a.config.EnvFiles...)
		if err != nil {
			return fmt.Errorf("failed to read env file: %w", err)
		}
		for _, key := range sortedKeys(env) {
			name, ok := envParamName(reg, key)
			if !ok {
				logger.Debug("Env file entry matches no parameter, skipping.", "key", key)
				continue
			}
			if err := override(reg, name, env[key]); err != nil {
				return fmt.Errorf("env file: %w", err)
			}
			logger.Debug("Parameter overridden from env file.", "name", name)
		}
	}

	for _, set := range a.config.Sets {
		name, value, err := splitSet(set)
		if err != nil {
			return err
		}
		if err := override(reg, name, value); err != nil {
			return fmt.Errorf("--set %s: %w", name, err)
		}
		logger.Debug("Parameter overridden from command line.", "name", name)
	}
	return nil
}

// envParamName maps an env file key to a declared parameter: `env.KEY` when
// declared, otherwise KEY itself.
func envParamName(reg *params.Registry, key string) (string, bool) {
	if _, _, ok := reg.Lookup(params.ProjectScope, "env."+key); ok {
		return "env." + key, true
	}
	if _, _, ok := reg.Lookup(params.ProjectScope, key); ok {
		return key, true
	}
	return "", false
}

func override(reg *params.Registry, name, raw string) error {
	decl, _, ok := reg.Lookup(params.ProjectScope, name)
	if !ok {
		return &configerr.UnresolvedParameterError{Name: name}
	}
	value, err := params.ParseValue(name, decl.Kind, raw)
	if err != nil {
		return err
	}
	return reg.Override(params.ProjectScope, name, value)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
