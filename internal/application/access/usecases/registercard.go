package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/accessvendor"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	apperrors "github.com/gymdesk/accessbridge/internal/shared/errors"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils"
	"github.com/gymdesk/accessbridge/internal/shared/utils/setutil"
)

type RegisterCardCommand struct {
	BranchID   uint
	MemberID   uint
	CardNumber string
}

type RegisterCardResult struct {
	PersonID      string
	CredentialID  uint
	PersonCreated bool
	DevicesSynced int
}

type RegisterCardUseCase struct {
	members       member.Repository
	credentials   member.CredentialRepository
	vendorPersons member.VendorPersonRepository
	doors         access.DoorRepository
	settings      branch.SettingsRepository
	controller    DoorController
	syncLog       SyncLogRecorder
	clock         biztime.Clock
	logger        logger.Interface
}

func NewRegisterCardUseCase(
	members member.Repository,
	credentials member.CredentialRepository,
	vendorPersons member.VendorPersonRepository,
	doors access.DoorRepository,
	settings branch.SettingsRepository,
	controller DoorController,
	syncLog SyncLogRecorder,
	clock biztime.Clock,
	log logger.Interface,
) *RegisterCardUseCase {
	if clock == nil {
		clock = biztime.NowUTC
	}
	return &RegisterCardUseCase{
		members:       members,
		credentials:   credentials,
		vendorPersons: vendorPersons,
		doors:         doors,
		settings:      settings,
		controller:    controller,
		syncLog:       syncLog,
		clock:         clock,
		logger:        log.Named("register-card"),
	}
}

// Execute binds a card to the member's vendor person, creating the person
// first when the branch has never seen the member, then asks the branch's
// devices to pick up the change.
func (uc *RegisterCardUseCase) Execute(ctx context.Context, cmd RegisterCardCommand) (*RegisterCardResult, error) {
	cardNumber := strings.TrimSpace(cmd.CardNumber)
	if cardNumber == "" {
		return nil, apperrors.NewValidationError("card number is required")
	}
	now := uc.clock.Now().UTC()

	m, err := uc.members.GetByID(ctx, cmd.MemberID)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, apperrors.NewNotFoundError("member not found", strconv.FormatUint(uint64(cmd.MemberID), 10))
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}

	pending := uc.syncLog.Begin(ctx, synclog.Record{
		BranchID: cmd.BranchID,
		Category: synclog.CategorySync,
		Message:  fmt.Sprintf("registering card for %s", m.FullName()),
		Details:  map[string]any{"member_id": m.ID},
		Entity:   synclog.Ref(entityMember, m.ID),
	})
	fail := func(message string, err error) error {
		uc.logger.Errorw(message, "member_id", m.ID, "branch_id", cmd.BranchID, "error", err)
		details := map[string]any{"error": err.Error(), "kind": string(accessvendor.KindOf(err))}
		if code := accessvendor.CodeOf(err); code != "" {
			details["code"] = code
		}
		pending.Complete(ctx, synclog.StatusError, message, details)
		return fmt.Errorf("%s: %w", message, err)
	}

	personID, created, err := uc.ensurePerson(ctx, cmd.BranchID, m, cardNumber, now)
	if err != nil {
		return nil, fail("vendor person lookup failed", err)
	}

	if err := uc.controller.BindCard(ctx, cmd.BranchID, personID, cardNumber); err != nil {
		return nil, fail("vendor card bind failed", err)
	}

	cred, err := uc.credentials.FindByValue(ctx, m.ID, member.CredentialCard, cardNumber)
	if err != nil {
		return nil, fail("failed to load card credential", err)
	}
	if cred == nil {
		if cred, err = member.NewCredential(m.ID, member.CredentialCard, cardNumber, now); err != nil {
			return nil, fail("invalid card credential", err)
		}
	} else {
		cred.Reactivate(now)
	}
	if err := uc.credentials.Save(ctx, cred); err != nil {
		return nil, fail("failed to store card credential", err)
	}

	devices, err := uc.branchDevices(ctx, cmd.BranchID)
	if err != nil {
		return nil, fail("failed to list branch devices", err)
	}
	if err := uc.controller.SyncDevices(ctx, cmd.BranchID, devices); err != nil {
		return nil, fail("vendor device sync failed", err)
	}

	pending.Complete(ctx, synclog.StatusSuccess, fmt.Sprintf("card registered for %s", m.FullName()), map[string]any{
		"person_id":      personID,
		"person_created": created,
		"card":           utils.MaskSecret(cardNumber),
		"devices":        len(devices),
	})

	return &RegisterCardResult{
		PersonID:      personID,
		CredentialID:  cred.ID(),
		PersonCreated: created,
		DevicesSynced: len(devices),
	}, nil
}

func (uc *RegisterCardUseCase) ensurePerson(ctx context.Context, branchID uint, m *member.Member, cardNumber string, now time.Time) (string, bool, error) {
	vp, err := uc.vendorPersons.GetByMember(ctx, m.ID, branchID)
	if err == nil {
		return vp.PersonID, false, nil
	}
	if !errors.Is(err, member.ErrVendorPersonNotFound) {
		return "", false, err
	}

	s, err := uc.settings.GetByBranchID(ctx, branchID)
	if err != nil {
		if errors.Is(err, branch.ErrSettingsNotFound) {
			return "", false, &accessvendor.ConfigError{BranchID: branchID, Reason: "settings not found"}
		}
		return "", false, err
	}

	personID, err := uc.controller.UpsertPerson(ctx, branchID, accessvendor.Person{
		PersonCode:  strconv.FormatUint(uint64(m.ID), 10),
		PersonName:  m.FullName(),
		OrgCode:     s.OrgCode,
		Phone:       m.Phone,
		CardNumbers: []string{cardNumber},
	})
	if err != nil {
		return "", false, err
	}
	if err := uc.vendorPersons.Save(ctx, &member.VendorPerson{
		MemberID:  m.ID,
		BranchID:  branchID,
		PersonID:  personID,
		UpdatedAt: now,
	}); err != nil {
		return "", false, err
	}
	return personID, true, nil
}

func (uc *RegisterCardUseCase) branchDevices(ctx context.Context, branchID uint) ([]string, error) {
	doors, err := uc.doors.ListActiveByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	set := setutil.New[string]()
	for _, d := range doors {
		if d.DeviceID != "" {
			set.Add(d.DeviceID)
		}
	}
	return set.Sorted(), nil
}
