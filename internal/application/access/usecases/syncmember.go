package usecases

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	appsynclog "github.com/gymdesk/accessbridge/internal/application/synclog"
	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/accessvendor"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils/setutil"
)

const entityMember = "member"

// SyncMemberResult reports what was pushed. Synced is false when the member
// could not be synchronised for a data reason (no member, no membership, no
// credentials); vendor and store failures come back as errors.
type SyncMemberResult struct {
	Synced        bool
	PersonID      string
	DoorIDs       []string
	CredentialIDs []uint
	Reason        string
}

type SyncMemberUseCase struct {
	members       member.Repository
	memberships   member.MembershipRepository
	credentials   member.CredentialRepository
	vendorPersons member.VendorPersonRepository
	zones         access.ZoneRepository
	doors         access.DoorRepository
	settings      branch.SettingsRepository
	checker       AccessChecker
	controller    DoorController
	syncLog       SyncLogRecorder
	clock         biztime.Clock
	logger        logger.Interface
}

func NewSyncMemberUseCase(
	members member.Repository,
	memberships member.MembershipRepository,
	credentials member.CredentialRepository,
	vendorPersons member.VendorPersonRepository,
	zones access.ZoneRepository,
	doors access.DoorRepository,
	settings branch.SettingsRepository,
	checker AccessChecker,
	controller DoorController,
	syncLog SyncLogRecorder,
	clock biztime.Clock,
	log logger.Interface,
) *SyncMemberUseCase {
	if clock == nil {
		clock = biztime.NowUTC
	}
	return &SyncMemberUseCase{
		members:       members,
		memberships:   memberships,
		credentials:   credentials,
		vendorPersons: vendorPersons,
		zones:         zones,
		doors:         doors,
		settings:      settings,
		checker:       checker,
		controller:    controller,
		syncLog:       syncLog,
		clock:         clock,
		logger:        log.Named("sync-member"),
	}
}

// Execute pushes the member's person record, credentials and door
// privileges to the vendor. It is safe to re-run: every vendor operation
// is an upsert.
func (uc *SyncMemberUseCase) Execute(ctx context.Context, memberID, branchID uint) (*SyncMemberResult, error) {
	now := uc.clock.Now().UTC()

	m, err := uc.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return uc.skip(ctx, branchID, memberID, "member not found"), nil
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}

	ms, err := uc.memberships.FindActive(ctx, memberID, now)
	if err != nil {
		if errors.Is(err, member.ErrNoActiveMembership) {
			return uc.skip(ctx, branchID, memberID, "no active membership"), nil
		}
		return nil, fmt.Errorf("failed to load active membership: %w", err)
	}

	doorIDs, err := uc.accessibleDoors(ctx, memberID, branchID)
	if err != nil {
		return nil, err
	}
	if len(doorIDs) == 0 {
		uc.logger.Infow("member has no accessible doors, nothing to push", "member_id", memberID, "branch_id", branchID)
		uc.syncLog.Log(ctx, synclog.Record{
			BranchID: branchID,
			Category: synclog.CategoryInfo,
			Status:   synclog.StatusSuccess,
			Message:  fmt.Sprintf("%s has no accessible doors; nothing pushed", m.FullName()),
			Entity:   synclog.Ref(entityMember, memberID),
		})
		return &SyncMemberResult{Synced: true, Reason: "no accessible doors"}, nil
	}

	creds, err := uc.credentials.ListActiveByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	usable := slices.DeleteFunc(creds, func(c *member.Credential) bool {
		return !c.UsableAt(now) || !c.Type().PushedToDevice()
	})
	if len(usable) == 0 {
		return uc.skip(ctx, branchID, memberID, "no active credentials"), nil
	}

	orgCode, err := uc.orgCode(ctx, branchID)
	if err != nil {
		return nil, err
	}

	pending := uc.syncLog.Begin(ctx, synclog.Record{
		BranchID: branchID,
		Category: synclog.CategorySync,
		Message:  fmt.Sprintf("syncing %s to door controller", m.FullName()),
		Details:  map[string]any{"member_id": memberID, "door_ids": doorIDs},
		Entity:   synclog.Ref(entityMember, memberID),
	})

	person := buildPerson(m, orgCode, usable)
	personID, err := uc.controller.UpsertPerson(ctx, branchID, person)
	if err != nil {
		return nil, uc.fail(ctx, pending, "vendor person upsert failed", err)
	}

	if err := uc.vendorPersons.Save(ctx, &member.VendorPerson{
		MemberID:  memberID,
		BranchID:  branchID,
		PersonID:  personID,
		UpdatedAt: now,
	}); err != nil {
		return nil, uc.fail(ctx, pending, "failed to store vendor person mapping", err)
	}

	if err := uc.controller.ConfigureAccess(ctx, branchID, accessvendor.AccessPrivilege{
		PersonID:  personID,
		DoorIDs:   doorIDs,
		StartTime: ms.StartDate,
		EndTime:   ms.EndDate,
	}); err != nil {
		return nil, uc.fail(ctx, pending, "vendor privilege configuration failed", err)
	}

	credIDs := make([]uint, 0, len(usable))
	for _, c := range usable {
		credIDs = append(credIDs, c.ID())
	}

	pending.Complete(ctx, synclog.StatusSuccess, fmt.Sprintf("%s synced to %d doors", m.FullName(), len(doorIDs)), map[string]any{
		"person_id":      personID,
		"credential_ids": credIDs,
		"valid_from":     biztime.FormatMetadataTime(ms.StartDate),
		"valid_until":    biztime.FormatMetadataTime(ms.EndDate),
	})
	uc.logger.Infow("member synced",
		"member_id", memberID,
		"branch_id", branchID,
		"person_id", personID,
		"doors", len(doorIDs),
	)

	return &SyncMemberResult{
		Synced:        true,
		PersonID:      personID,
		DoorIDs:       doorIDs,
		CredentialIDs: credIDs,
	}, nil
}

// accessibleDoors returns the sorted vendor door ids of active doors in
// every zone of the branch the member may enter.
func (uc *SyncMemberUseCase) accessibleDoors(ctx context.Context, memberID, branchID uint) ([]string, error) {
	zones, err := uc.zones.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	var zoneIDs []uint
	for _, z := range zones {
		ok, err := uc.checker.HasZoneAccess(ctx, memberID, z.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve access to zone %d: %w", z.ID, err)
		}
		if ok {
			zoneIDs = append(zoneIDs, z.ID)
		}
	}
	if len(zoneIDs) == 0 {
		return nil, nil
	}

	doors, err := uc.doors.ListActiveByZones(ctx, zoneIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list doors: %w", err)
	}
	ids := make([]string, 0, len(doors))
	for _, d := range doors {
		ids = append(ids, d.VendorDoorID)
	}
	return setutil.New(ids...).Sorted(), nil
}

func (uc *SyncMemberUseCase) orgCode(ctx context.Context, branchID uint) (string, error) {
	s, err := uc.settings.GetByBranchID(ctx, branchID)
	if err != nil {
		if errors.Is(err, branch.ErrSettingsNotFound) {
			return "", &accessvendor.ConfigError{BranchID: branchID, Reason: "settings not found"}
		}
		return "", fmt.Errorf("failed to load branch settings: %w", err)
	}
	return s.OrgCode, nil
}

func (uc *SyncMemberUseCase) skip(ctx context.Context, branchID, memberID uint, reason string) *SyncMemberResult {
	uc.logger.Warnw("member not synced", "member_id", memberID, "branch_id", branchID, "reason", reason)
	uc.syncLog.Log(ctx, synclog.Record{
		BranchID: branchID,
		Category: synclog.CategoryWarning,
		Status:   synclog.StatusWarning,
		Message:  "member not synced: " + reason,
		Details:  map[string]any{"member_id": memberID},
		Entity:   synclog.Ref(entityMember, memberID),
	})
	return &SyncMemberResult{Synced: false, Reason: reason}
}

func (uc *SyncMemberUseCase) fail(ctx context.Context, pending *appsynclog.Pending, message string, err error) error {
	uc.logger.Errorw(message, "error", err)
	details := map[string]any{"error": err.Error(), "kind": string(accessvendor.KindOf(err))}
	if code := accessvendor.CodeOf(err); code != "" {
		details["code"] = code
	}
	pending.Complete(ctx, synclog.StatusError, message, details)
	return fmt.Errorf("%s: %w", message, err)
}

func buildPerson(m *member.Member, orgCode string, creds []*member.Credential) accessvendor.Person {
	p := accessvendor.Person{
		PersonCode: strconv.FormatUint(uint64(m.ID), 10),
		PersonName: m.FullName(),
		OrgCode:    orgCode,
		Phone:      m.Phone,
	}
	for _, c := range creds {
		switch c.Type() {
		case member.CredentialCard:
			p.CardNumbers = append(p.CardNumbers, c.Value())
		case member.CredentialFace:
			p.FaceTemplates = append(p.FaceTemplates, c.Value())
		case member.CredentialFingerprint:
			p.FingerprintTemplates = append(p.FingerprintTemplates, c.Value())
		}
	}
	return p
}
