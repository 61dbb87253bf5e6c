// Package hcl provides the HCL implementation of config.Loader. It is
// responsible for file discovery, parsing, decoding blocks into Go structs
// with gohcl and translating them into the format-agnostic config.Model.
//
// The top-level blocks are `project`, `param`, `template`, `feature` and
// `build_type`, plus an optional `version` attribute. Parameter values keep
// their cty type so the registry can check them against declared kinds.
package hcl
