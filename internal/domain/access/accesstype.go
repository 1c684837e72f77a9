// Package access models door zones and the layered permission rules that
// decide whether a member may open a zone's doors.
package access

import "fmt"

type AccessType string

const (
	AccessAllowed   AccessType = "allowed"
	AccessDenied    AccessType = "denied"
	AccessScheduled AccessType = "scheduled"
)

func (a AccessType) IsValid() bool {
	switch a {
	case AccessAllowed, AccessDenied, AccessScheduled:
		return true
	}
	return false
}

func ParseAccessType(s string) (AccessType, error) {
	a := AccessType(s)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid access type %q", s)
	}
	return a, nil
}

// Verdict is the outcome of one resolver step. VerdictNotFound means the
// step had no rule and the next step should be consulted.
type Verdict int

const (
	VerdictNotFound Verdict = iota
	VerdictAllowed
	VerdictDenied
	VerdictScheduled
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllowed:
		return "allowed"
	case VerdictDenied:
		return "denied"
	case VerdictScheduled:
		return "scheduled"
	default:
		return "not_found"
	}
}

// VerdictOf maps a rule's access type to its verdict. Unknown types deny.
func VerdictOf(a AccessType) Verdict {
	switch a {
	case AccessAllowed:
		return VerdictAllowed
	case AccessScheduled:
		return VerdictScheduled
	default:
		return VerdictDenied
	}
}
