// Package fault carries business-rule outcomes as coded errors so callers can
// translate them into specific user-facing messages. Infrastructure failures
// are plain wrapped errors and never carry a code.
package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound          Code = "not_found"
	CodeValidation        Code = "validation"
	CodeDuplicate         Code = "duplicate"
	CodeNotAuthorized     Code = "not_authorized"
	CodeJobNotOpen        Code = "job_not_open"
	CodeJobFilled         Code = "job_filled"
	CodeFrozen            Code = "frozen"
	CodeNotQualified      Code = "not_qualified"
	CodeCredentialExpired Code = "credential_expired"
	CodeCredentialUsed    Code = "credential_used"
	CodeOutsideGeofence   Code = "outside_geofence"
	CodeNotCheckedIn      Code = "not_checked_in"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a business outcome with the given code.
func Is(err error, code Code) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Code == code
}

// CodeOf returns the code of a business outcome, or "" for infrastructure errors.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
