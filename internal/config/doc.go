// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package config defines the format-agnostic representation of a project
// definition and the Loader interface concrete formats implement.
//
// # Core Concepts
//
//   - Model: everything read from one or more files, merged. It is a plain
//     description and is not validated beyond what a loader needs to decode
//     it; graph-level checks belong to the builder.
//
//   - ParamSpec, TemplateSpec, BuildTypeSpec, FeatureSpec: one per block or
//     mapping entry in the source file. Each carries Source, the file it was
//     read from, so later errors can point back at it.
//
// Loaders for HCL and YAML live in their own packages and produce the same
// Model, so the rest of the application never sees the source format.
package config
