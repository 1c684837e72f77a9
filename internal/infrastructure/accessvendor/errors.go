package accessvendor

import (
	"errors"
	"fmt"
)

// ErrorKind groups failures by how callers should react to them.
type ErrorKind string

const (
	KindConfig    ErrorKind = "config"
	KindAuth      ErrorKind = "auth"
	KindTransient ErrorKind = "transient"
	KindDomain    ErrorKind = "domain"
)

// Vendor result codes. Anything other than CodeOK is a failure.
const (
	CodeOK             = "0"
	CodeTokenExpired   = "TOKEN_EXPIRED"
	CodePersonNotFound = "PERSON_NOT_FOUND"
	CodeDeviceOffline  = "DEVICE_OFFLINE"
)

var (
	ErrTokenExpired   = errors.New("vendor token expired")
	ErrPersonNotFound = errors.New("vendor person not found")
	ErrDeviceOffline  = errors.New("vendor device offline")
	ErrRateLimited    = errors.New("vendor rate limit reached")
)

// ConfigError means the branch cannot talk to the vendor at all: settings
// are missing, inactive or malformed.
type ConfigError struct {
	BranchID uint
	Reason   string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vendor config invalid for branch %d: %s: %v", e.BranchID, e.Reason, e.Err)
	}
	return fmt.Sprintf("vendor config invalid for branch %d: %s", e.BranchID, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// AuthError means the vendor refused to authenticate the branch.
type AuthError struct {
	BranchID uint
	Status   int
	Code     string
	Err      error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("vendor auth failed for branch %d", e.BranchID)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (http %d)", e.Status)
	}
	if e.Code != "" {
		msg += fmt.Sprintf(" (code %s)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// VendorError is a non-retryable application error reported in the vendor
// envelope. Code is the vendor's stable code.
type VendorError struct {
	Endpoint string
	Code     string
	Message  string
}

func (e *VendorError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("vendor %s returned %s: %s", e.Endpoint, e.Code, e.Message)
	}
	return fmt.Sprintf("vendor %s returned %s", e.Endpoint, e.Code)
}

func (e *VendorError) Is(target error) bool {
	switch e.Code {
	case CodePersonNotFound:
		return target == ErrPersonNotFound
	case CodeDeviceOffline:
		return target == ErrDeviceOffline
	case CodeTokenExpired:
		return target == ErrTokenExpired
	}
	return false
}

// CallError is returned once the retry budget is spent on transient failures.
type CallError struct {
	Endpoint string
	Method   string
	BranchID uint
	Status   int
	Code     string
	Attempts int
	Err      error
}

func (e *CallError) Error() string {
	msg := fmt.Sprintf("vendor call failed: %s %s branch=%d attempts=%d", e.Method, e.Endpoint, e.BranchID, e.Attempts)
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CallError) Unwrap() error { return e.Err }

// KindOf classifies any error returned by this package.
func KindOf(err error) ErrorKind {
	var (
		cfgErr    *ConfigError
		authErr   *AuthError
		vendorErr *VendorError
	)
	switch {
	case errors.As(err, &cfgErr):
		return KindConfig
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &vendorErr):
		if vendorErr.Code == CodeTokenExpired {
			return KindAuth
		}
		return KindDomain
	default:
		return KindTransient
	}
}

// CodeOf returns the vendor code carried by err, if any.
func CodeOf(err error) string {
	var vendorErr *VendorError
	if errors.As(err, &vendorErr) {
		return vendorErr.Code
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Code
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ""
}
