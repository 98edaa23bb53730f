package main

import (
	"fmt"

	"github.com/arreyder/holaspirit-mcp/internal/tools"
)

const (
	exitFailure    = 1
	exitValidation = 2
	exitUpstream   = 3
	exitConfig     = 4
)

// ExitError carries the process exit code back to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func exitCodeFor(code string) int {
	switch code {
	case tools.CodeInvalidArgument, tools.CodeInvalidRequest, tools.CodeUnknownTool:
		return exitValidation
	case tools.CodeUpstream, tools.CodeBadResponse:
		return exitUpstream
	default:
		return exitFailure
	}
}
