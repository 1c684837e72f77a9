// Package services holds the access resolution engine.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// Rule is what a resolver step found: a verdict and, for scheduled
// verdicts, the schedule to evaluate.
type Rule struct {
	Verdict  access.Verdict
	Schedule *access.Schedule
	Source   string
}

var notFound = Rule{Verdict: access.VerdictNotFound}

// ZoneResolver is one step of the resolution chain. It returns a rule with
// VerdictNotFound to defer to the next step.
type ZoneResolver interface {
	Resolve(ctx context.Context, memberID, zoneID uint, now time.Time) (Rule, error)
}

// OverrideResolver consults per-member overrides valid at now.
type OverrideResolver struct {
	overrides access.OverrideRepository
}

func NewOverrideResolver(overrides access.OverrideRepository) *OverrideResolver {
	return &OverrideResolver{overrides: overrides}
}

func (r *OverrideResolver) Resolve(ctx context.Context, memberID, zoneID uint, now time.Time) (Rule, error) {
	o, err := r.overrides.FindActive(ctx, memberID, zoneID, now.UTC())
	if err != nil {
		return notFound, fmt.Errorf("failed to load member override: %w", err)
	}
	if o == nil {
		return notFound, nil
	}
	return Rule{Verdict: access.VerdictOf(o.AccessType), Schedule: o.Schedule, Source: "override"}, nil
}

// MembershipResolver consults the zone permission of the member's active
// membership.
type MembershipResolver struct {
	active      member.MembershipRepository
	permissions access.PermissionRepository
}

func NewMembershipResolver(active member.MembershipRepository, permissions access.PermissionRepository) *MembershipResolver {
	return &MembershipResolver{active: active, permissions: permissions}
}

func (r *MembershipResolver) Resolve(ctx context.Context, memberID, zoneID uint, now time.Time) (Rule, error) {
	ms, err := r.active.FindActive(ctx, memberID, now.UTC())
	if err != nil {
		if errors.Is(err, member.ErrNoActiveMembership) {
			return notFound, nil
		}
		return notFound, fmt.Errorf("failed to load active membership: %w", err)
	}
	perm, err := r.permissions.Find(ctx, ms.ID, zoneID)
	if err != nil {
		return notFound, fmt.Errorf("failed to load membership permission: %w", err)
	}
	if perm == nil {
		return notFound, nil
	}
	return Rule{Verdict: access.VerdictOf(perm.AccessType), Schedule: perm.Schedule, Source: "membership"}, nil
}

// AccessResolver answers whether a member may enter a zone right now. It
// walks its resolvers in order and stops at the first one with a rule.
// Anything it cannot decide is denied.
type AccessResolver struct {
	chain  []ZoneResolver
	clock  biztime.Clock
	logger logger.Interface
}

func NewAccessResolver(clock biztime.Clock, log logger.Interface, chain ...ZoneResolver) *AccessResolver {
	if clock == nil {
		clock = biztime.Now
	}
	return &AccessResolver{chain: chain, clock: clock, logger: log.Named("access-resolver")}
}

// NewDefaultAccessResolver builds the override → membership chain.
func NewDefaultAccessResolver(
	overrides access.OverrideRepository,
	memberships member.MembershipRepository,
	permissions access.PermissionRepository,
	clock biztime.Clock,
	log logger.Interface,
) *AccessResolver {
	return NewAccessResolver(clock, log,
		NewOverrideResolver(overrides),
		NewMembershipResolver(memberships, permissions),
	)
}

// HasZoneAccess returns false together with the error when a lookup fails.
func (r *AccessResolver) HasZoneAccess(ctx context.Context, memberID, zoneID uint) (bool, error) {
	now := r.clock.Now()
	rule, err := r.resolve(ctx, memberID, zoneID, now)
	if err != nil {
		r.logger.Warnw("access resolution failed, denying",
			"member_id", memberID,
			"zone_id", zoneID,
			"error", err,
		)
		return false, err
	}
	return Evaluate(rule, now), nil
}

func (r *AccessResolver) resolve(ctx context.Context, memberID, zoneID uint, now time.Time) (Rule, error) {
	for _, step := range r.chain {
		rule, err := step.Resolve(ctx, memberID, zoneID, now)
		if err != nil {
			return notFound, err
		}
		if rule.Verdict != access.VerdictNotFound {
			return rule, nil
		}
	}
	return notFound, nil
}

// Evaluate turns a rule into a decision at the wall-clock time now. A
// scheduled rule without a schedule denies.
func Evaluate(rule Rule, now time.Time) bool {
	switch rule.Verdict {
	case access.VerdictAllowed:
		return true
	case access.VerdictScheduled:
		return rule.Schedule.Allows(now)
	default:
		return false
	}
}
