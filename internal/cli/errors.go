package cli

import (
	"errors"
	"fmt"

	"historicalmap/internal/exchange"
)

const (
	ExitCodeGeneric  = 1
	ExitCodeUsage    = 2
	ExitCodeNotFound = 3
	ExitCodeIO       = 7
)

// UsageError marks an invalid command line.
type UsageError struct{ msg string }

func (e *UsageError) Error() string { return e.msg }

func (e *UsageError) ExitCode() int { return ExitCodeUsage }

func usageErrorf(format string, args ...any) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	var withExitCode interface{ ExitCode() int }
	if errors.As(err, &withExitCode) {
		return withExitCode.ExitCode()
	}
	var xerr *exchange.Error
	if errors.As(err, &xerr) {
		switch xerr.Code {
		case exchange.CodeInvalidParam:
			return ExitCodeUsage
		case exchange.CodeFileNotExists:
			return ExitCodeNotFound
		default:
			return ExitCodeIO
		}
	}
	return ExitCodeGeneric
}
