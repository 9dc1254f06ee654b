//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// These imports are not used at runtime. They keep mockgen, invoked via
// `go generate` in contract, tracked in go.mod.
package huddle

import (
	_ "go.uber.org/mock/mockgen"
)
