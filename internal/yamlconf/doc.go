// Package yamlconf loads project definitions written in YAML into the same
// config.Model the HCL loader produces.
//
// Scalar parameter values keep their YAML type: `8` is a number and `"8"` is
// a string, so text parameters must be quoted when they look numeric.
package yamlconf
