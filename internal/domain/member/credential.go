package member

import (
	"fmt"
	"time"
)

type CredentialType string

const (
	CredentialCard        CredentialType = "card"
	CredentialFace        CredentialType = "face"
	CredentialFingerprint CredentialType = "fingerprint"
	CredentialPIN         CredentialType = "pin"
)

func (c CredentialType) IsValid() bool {
	switch c {
	case CredentialCard, CredentialFace, CredentialFingerprint, CredentialPIN:
		return true
	}
	return false
}

// PushedToDevice reports whether the door controller stores this credential
// type on the vendor person. PINs stay local.
func (c CredentialType) PushedToDevice() bool {
	return c == CredentialCard || c == CredentialFace || c == CredentialFingerprint
}

// Credential is an identifier a door device accepts for a member. Revoked
// credentials are deactivated and kept for audit.
type Credential struct {
	id        uint
	memberID  uint
	credType  CredentialType
	value     string
	isActive  bool
	issuedAt  time.Time
	expiresAt *time.Time
	updatedAt time.Time
}

func NewCredential(memberID uint, credType CredentialType, value string, issuedAt time.Time) (*Credential, error) {
	if memberID == 0 {
		return nil, fmt.Errorf("member ID is required")
	}
	if !credType.IsValid() {
		return nil, fmt.Errorf("invalid credential type %q", credType)
	}
	if value == "" {
		return nil, fmt.Errorf("credential value is required")
	}
	return &Credential{
		memberID:  memberID,
		credType:  credType,
		value:     value,
		isActive:  true,
		issuedAt:  issuedAt,
		updatedAt: issuedAt,
	}, nil
}

// ReconstructCredential rebuilds a credential loaded from storage.
func ReconstructCredential(
	id, memberID uint,
	credType CredentialType,
	value string,
	isActive bool,
	issuedAt time.Time,
	expiresAt *time.Time,
	updatedAt time.Time,
) *Credential {
	return &Credential{
		id:        id,
		memberID:  memberID,
		credType:  credType,
		value:     value,
		isActive:  isActive,
		issuedAt:  issuedAt,
		expiresAt: expiresAt,
		updatedAt: updatedAt,
	}
}

func (c *Credential) ID() uint                   { return c.id }
func (c *Credential) MemberID() uint             { return c.memberID }
func (c *Credential) Type() CredentialType       { return c.credType }
func (c *Credential) Value() string              { return c.value }
func (c *Credential) IsActive() bool             { return c.isActive }
func (c *Credential) IssuedAt() time.Time        { return c.issuedAt }
func (c *Credential) ExpiresAt() *time.Time      { return c.expiresAt }
func (c *Credential) UpdatedAt() time.Time       { return c.updatedAt }
func (c *Credential) SetID(id uint)              { c.id = id }
func (c *Credential) SetExpiresAt(at *time.Time) { c.expiresAt = at }

// UsableAt reports an active credential that has not expired.
func (c *Credential) UsableAt(at time.Time) bool {
	if !c.isActive {
		return false
	}
	return c.expiresAt == nil || at.Before(*c.expiresAt)
}

func (c *Credential) Deactivate(at time.Time) {
	if !c.isActive {
		return
	}
	c.isActive = false
	c.updatedAt = at
}

// Reactivate marks a previously revoked credential as usable again, used when
// the same card is registered a second time.
func (c *Credential) Reactivate(at time.Time) {
	c.isActive = true
	c.updatedAt = at
}
