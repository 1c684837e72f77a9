package member

import (
	"context"
	"time"
)

type Repository interface {
	// GetByID returns ErrMemberNotFound when the member does not exist.
	GetByID(ctx context.Context, memberID uint) (*Member, error)
	GetByIDs(ctx context.Context, memberIDs []uint) (map[uint]*Member, error)
}

type MembershipRepository interface {
	// FindActive returns ErrNoActiveMembership when no membership covers at.
	FindActive(ctx context.Context, memberID uint, at time.Time) (*Membership, error)
}

type CredentialRepository interface {
	ListActiveByMember(ctx context.Context, memberID uint) ([]*Credential, error)
	// FindByValue returns nil, nil when the member has no such credential.
	FindByValue(ctx context.Context, memberID uint, credType CredentialType, value string) (*Credential, error)
	Save(ctx context.Context, cred *Credential) error
	DeactivateAll(ctx context.Context, memberID uint, at time.Time) (int64, error)
}

type VendorPersonRepository interface {
	// GetByMember returns ErrVendorPersonNotFound when no mapping exists.
	GetByMember(ctx context.Context, memberID, branchID uint) (*VendorPerson, error)
	GetByPersonID(ctx context.Context, branchID uint, personID string) (*VendorPerson, error)
	Save(ctx context.Context, person *VendorPerson) error
}
