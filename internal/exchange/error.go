package exchange

import "fmt"

// Code classifies file exchange and tile failures.
type Code string

const (
	CodeFileExists           Code = "FILE_EXISTS"
	CodeFileNotExists        Code = "FILE_NOT_EXISTS"
	CodeParseFileError       Code = "PARSE_FILE_ERROR"
	CodeFileFormatNotSupport Code = "FILE_FORMAT_NOT_SUPPORT"
	CodeFileEmpty            Code = "FILE_EMPTY"
	CodeInvalidParam         Code = "INVALID_PARAM"
	CodeNetworkError         Code = "NETWORK_ERROR"
)

// Error carries a Code and a human readable message.
// errors.Is matches any *Error with the same code, so the package level
// values below can be used as targets.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

var (
	ErrFileExists           = &Error{Code: CodeFileExists}
	ErrFileNotExists        = &Error{Code: CodeFileNotExists}
	ErrParseFile            = &Error{Code: CodeParseFileError}
	ErrFileFormatNotSupport = &Error{Code: CodeFileFormatNotSupport}
	ErrFileEmpty            = &Error{Code: CodeFileEmpty}
	ErrInvalidParam         = &Error{Code: CodeInvalidParam}
	ErrNetwork              = &Error{Code: CodeNetworkError}
)

// Errorf builds an *Error. A trailing %w verb is honoured through Unwrap.
func Errorf(code Code, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Code: code, Msg: err.Error(), Err: unwrapOnce(err)}
}

func unwrapOnce(err error) error {
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return u.Unwrap()
	}
	return nil
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
