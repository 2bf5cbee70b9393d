// Package result defines the outcome envelope returned by every public
// operation of the persistence services.
package result

import (
	"errors"
	"fmt"
)

// Status is the coarse outcome of an operation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// ErrorCode classifies a FAILURE result.
type ErrorCode string

const (
	DBInvalidData     ErrorCode = "DB_INVALID_DATA"
	DBInsertFailed    ErrorCode = "DB_INSERT_FAILED"
	DBUpdateFailed    ErrorCode = "DB_UPDATE_FAILED"
	DBDeleteFailed    ErrorCode = "DB_DELETE_FAILED"
	DBQueryFailed     ErrorCode = "DB_QUERY_FAILED"
	DBRecordNotFound  ErrorCode = "DB_RECORD_NOT_FOUND"
	InventoryOpFailed ErrorCode = "INVENTORY_OPERATION_FAILED"
	ItemNotFound      ErrorCode = "ITEM_NOT_FOUND"
	InternalError     ErrorCode = "INTERNAL_ERROR"
)

// ErrorCodes lists every code in declaration order.
func ErrorCodes() []ErrorCode {
	return []ErrorCode{
		DBInvalidData, DBInsertFailed, DBUpdateFailed, DBDeleteFailed,
		DBQueryFailed, DBRecordNotFound, InventoryOpFailed, ItemNotFound, InternalError,
	}
}

// Result carries a status, a human readable message and, on failure, a code.
type Result struct {
	Status    Status     `msgpack:"status" json:"status"`
	Message   string     `msgpack:"message" json:"message"`
	ErrorCode *ErrorCode `msgpack:"error_code,omitempty" json:"error_code,omitempty"`
}

// OK returns a SUCCESS result.
func OK(msg string) Result {
	return Result{Status: StatusSuccess, Message: msg}
}

// OKf is OK with fmt.Sprintf formatting.
func OKf(format string, args ...interface{}) Result {
	return OK(fmt.Sprintf(format, args...))
}

// Fail returns a FAILURE result with the given code.
func Fail(code ErrorCode, msg string) Result {
	c := code
	return Result{Status: StatusFailure, Message: msg, ErrorCode: &c}
}

// Failf is Fail with fmt.Sprintf formatting.
func Failf(code ErrorCode, format string, args ...interface{}) Result {
	return Fail(code, fmt.Sprintf(format, args...))
}

// Succeeded reports whether r has status SUCCESS.
func (r Result) Succeeded() bool { return r.Status == StatusSuccess }

// Code returns the error code or "" when none is set.
func (r Result) Code() ErrorCode {
	if r.ErrorCode == nil {
		return ""
	}
	return *r.ErrorCode
}

func (r Result) String() string {
	if r.ErrorCode != nil {
		return fmt.Sprintf("%s[%s]: %s", r.Status, *r.ErrorCode, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Message)
}

// IsOK is true iff no element of results is a FAILURE.
func IsOK(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFailure {
			return false
		}
	}
	return true
}

// IsTrue accepts a Result, a []Result or a bool. Any other value is false.
func IsTrue(v interface{}) bool {
	switch t := v.(type) {
	case Result:
		return t.Succeeded()
	case *Result:
		return t != nil && t.Succeeded()
	case []Result:
		return IsOK(t)
	case bool:
		return t
	default:
		return false
	}
}

// FirstFailure returns the first FAILURE in results, if any.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Status == StatusFailure {
			return r, true
		}
	}
	return Result{}, false
}

// Error is the Go error form of a FAILURE result.
type Error struct {
	Code    ErrorCode
	Message string
}

// Errorf creates an *Error.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Result converts e into a FAILURE result.
func (e *Error) Result() Result {
	return Fail(e.Code, e.Message)
}

// FromError converts err into a FAILURE result. An *Error anywhere in the
// chain keeps its own code; any other error is classified as fallback.
func FromError(err error, fallback ErrorCode) Result {
	var re *Error
	if errors.As(err, &re) {
		return re.Result()
	}
	return Fail(fallback, err.Error())
}
