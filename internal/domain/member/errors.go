package member

import "errors"

var (
	ErrMemberNotFound       = errors.New("member not found")
	ErrNoActiveMembership   = errors.New("member has no active membership")
	ErrVendorPersonNotFound = errors.New("vendor person mapping not found")
)
