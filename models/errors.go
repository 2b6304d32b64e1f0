package models

import "fmt"

// ErrorCode categorizes a risk computation failure
type ErrorCode string

const (
	CodeInvalidInput              ErrorCode = "INVALID_INPUT"
	CodeInsufficientData          ErrorCode = "INSUFFICIENT_DATA"
	CodeUnsupportedConfidence     ErrorCode = "UNSUPPORTED_CONFIDENCE"
	CodeUnsupportedOptionType     ErrorCode = "UNSUPPORTED_OPTION_TYPE"
	CodeUnsupportedOptionStyle    ErrorCode = "UNSUPPORTED_OPTION_STYLE"
	CodeNotPositiveDefinite       ErrorCode = "NOT_POSITIVE_DEFINITE"
	CodeLatticeInstability        ErrorCode = "LATTICE_INSTABILITY"
	CodeUnsupportedPortfolioShape ErrorCode = "UNSUPPORTED_PORTFOLIO_SHAPE"
	CodeUnknownModel              ErrorCode = "UNKNOWN_MODEL"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrInvalidInput              = &Error{Code: CodeInvalidInput}
	ErrInsufficientData          = &Error{Code: CodeInsufficientData}
	ErrUnsupportedConfidence     = &Error{Code: CodeUnsupportedConfidence}
	ErrUnsupportedOptionType     = &Error{Code: CodeUnsupportedOptionType}
	ErrUnsupportedOptionStyle    = &Error{Code: CodeUnsupportedOptionStyle}
	ErrNotPositiveDefinite       = &Error{Code: CodeNotPositiveDefinite}
	ErrLatticeInstability        = &Error{Code: CodeLatticeInstability}
	ErrUnsupportedPortfolioShape = &Error{Code: CodeUnsupportedPortfolioShape}
	ErrUnknownModel              = &Error{Code: CodeUnknownModel}
)

// Error carries the failing parameter alongside its code
type Error struct {
	Code  ErrorCode
	Param string
	Value any
	Msg   string
}

func (e *Error) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s (%s=%v)", e.Code, e.Msg, e.Param, e.Value)
}

// Is matches on the error code only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, param string, value any, format string, args ...any) *Error {
	return &Error{Code: code, Param: param, Value: value, Msg: fmt.Sprintf(format, args...)}
}

func InvalidInput(param string, value any, format string, args ...any) error {
	return newError(CodeInvalidInput, param, value, format, args...)
}

func InsufficientData(param string, value any, format string, args ...any) error {
	return newError(CodeInsufficientData, param, value, format, args...)
}

func UnsupportedConfidence(confidence int) error {
	return newError(CodeUnsupportedConfidence, "confidence", confidence, "no z-score for confidence level")
}

func UnsupportedOptionType(t OptionType) error {
	return newError(CodeUnsupportedOptionType, "type", t, "cannot price option type")
}

func UnsupportedOptionStyle(s OptionStyle) error {
	return newError(CodeUnsupportedOptionStyle, "style", s, "cannot price option style")
}

func NotPositiveDefinite(size int) error {
	return newError(CodeNotPositiveDefinite, "size", size, "covariance matrix is not positive definite")
}

func LatticeInstability(param string, value float64) error {
	return newError(CodeLatticeInstability, param, value, "lattice parameter out of range")
}

func UnsupportedPortfolioShape(positions, options int) error {
	return newError(CodeUnsupportedPortfolioShape, "shape", fmt.Sprintf("%d positions/%d options", positions, options),
		"expected exactly one position and no options")
}

func UnknownModel(model string) error {
	return newError(CodeUnknownModel, "model", model, "unknown VaR model")
}
