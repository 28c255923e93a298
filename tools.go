//go:build tools

// Package journal_live pins mockgen so `go generate ./...` regenerates the
// gomock doubles in mocks/ with the version recorded in go.mod.
package journal_live

import (
	_ "go.uber.org/mock/mockgen"
)
