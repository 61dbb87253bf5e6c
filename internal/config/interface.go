// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every supported file under paths (files or directories)
	// and returns the merged model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
