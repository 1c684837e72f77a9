package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/domain/attendance"
	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/mappers"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(models.OwnedModels()...))
	require.NoError(t, gdb.AutoMigrate(models.PlatformModels()...))
	return gdb
}

func TestVendorTokenRepository_Upsert(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewVendorTokenRepository(gdb, logger.NewNop())
	ctx := context.Background()

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, branch.ErrTokenNotFound)

	exp := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, &branch.Token{BranchID: 1, Value: "first", ExpiresAt: exp}))
	require.NoError(t, repo.Save(ctx, &branch.Token{BranchID: 1, Value: "second", ExpiresAt: exp.Add(time.Hour)}))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Value)
	assert.True(t, got.ExpiresAt.Equal(exp.Add(time.Hour)))

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, branch.ErrTokenNotFound)
}

func TestBranchSettingsRepository_ListActive(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewBranchSettingsRepository(gdb, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &branch.Settings{BranchID: 1, BaseURL: "https://a", AppKey: "k", AppSecret: "s", IsActive: true}))
	require.NoError(t, gdb.Create(&models.BranchVendorSettingsModel{BranchID: 2, BaseURL: "https://b", AppKey: "k", AppSecret: "s"}).Error)
	require.NoError(t, gdb.Model(&models.BranchVendorSettingsModel{}).Where("branch_id = ?", 2).Update("is_active", false).Error)

	list, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint(1), list[0].BranchID)

	_, err = repo.GetByBranchID(ctx, 9)
	assert.ErrorIs(t, err, branch.ErrSettingsNotFound)
}

func TestAccessRepository_OverrideAndPermission(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewAccessRepository(gdb, logger.NewNop())
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	expired := now.Add(-time.Hour)
	sched, err := access.NewSchedule("06:00", "14:00", []time.Weekday{time.Monday})
	require.NoError(t, err)

	require.NoError(t, gdb.Create(&models.MemberAccessOverrideModel{
		MemberID: 7, ZoneID: 1, AccessType: "allowed", ValidFrom: now.AddDate(0, -1, 0), ValidUntil: &expired,
	}).Error)
	require.NoError(t, gdb.Create(&models.MemberAccessOverrideModel{
		MemberID: 7, ZoneID: 1, AccessType: "scheduled", ValidFrom: now.AddDate(0, 0, -1),
		ScheduleColumns: mappers.ScheduleToColumns(sched),
	}).Error)

	o, err := repo.FindActive(ctx, 7, 1, now)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, access.AccessScheduled, o.AccessType)
	require.NotNil(t, o.Schedule)
	assert.True(t, o.Schedule.Allows(now))

	none, err := repo.FindActive(ctx, 7, 2, now)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, gdb.Create(&models.MembershipAccessPermissionModel{MembershipID: 3, ZoneID: 1, AccessType: "denied"}).Error)
	p, err := repo.Find(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, access.AccessDenied, p.AccessType)
	assert.Nil(t, p.Schedule)
}

func TestAccessRepository_Doors(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewAccessRepository(gdb, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.AccessZoneModel{ID: 1, BranchID: 1, Name: "Gym floor"}).Error)
	require.NoError(t, gdb.Create(&models.AccessZoneModel{ID: 2, BranchID: 1, Name: "Pool"}).Error)
	require.NoError(t, gdb.Create(&models.AccessDoorModel{VendorDoorID: "D-1", BranchID: 1, ZoneID: 1, DeviceID: "DEV-1", IsActive: true}).Error)
	require.NoError(t, gdb.Create(&models.AccessDoorModel{VendorDoorID: "D-2", BranchID: 1, ZoneID: 2, DeviceID: "DEV-2", IsActive: true}).Error)
	require.NoError(t, gdb.Create(&models.AccessDoorModel{VendorDoorID: "D-3", BranchID: 1, ZoneID: 2, DeviceID: "DEV-2", IsActive: true}).Error)
	require.NoError(t, gdb.Model(&models.AccessDoorModel{}).Where("vendor_door_id = ?", "D-3").Update("is_active", false).Error)

	zones, err := repo.ListByBranch(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, zones, 2)

	doors, err := repo.ListActiveByZones(ctx, []uint{2})
	require.NoError(t, err)
	require.Len(t, doors, 1)
	assert.Equal(t, "D-2", doors[0].VendorDoorID)

	all, err := repo.ListActiveByBranch(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	d, err := repo.GetByVendorDoorID(ctx, 1, "D-1")
	require.NoError(t, err)
	assert.Equal(t, "DEV-1", d.DeviceID)

	missing, err := repo.GetByVendorDoorID(ctx, 1, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCredentialRepository_SaveAndDeactivate(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewCredentialRepository(gdb, logger.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	card, err := member.NewCredential(7, member.CredentialCard, "0099", now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, card))
	assert.NotZero(t, card.ID())

	face, err := member.NewCredential(7, member.CredentialFace, "tpl", now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, face))

	active, err := repo.ListActiveByMember(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	n, err := repo.DeactivateAll(ctx, 7, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err = repo.ListActiveByMember(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, active)

	// rows are kept, never hard-deleted
	var count int64
	gdb.Model(&models.MemberAccessCredentialModel{}).Where("member_id = ?", 7).Count(&count)
	assert.Equal(t, int64(2), count)

	found, err := repo.FindByValue(ctx, 7, member.CredentialCard, "0099")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.IsActive())
}

func TestMemberRepository_FindActiveMembership(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewMemberRepository(gdb, logger.NewNop())
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, gdb.Create(&models.MemberModel{ID: 7, BranchID: 1, FirstName: "Dewi", LastName: "Lestari", Role: "member"}).Error)
	require.NoError(t, gdb.Create(&models.MembershipModel{MemberID: 7, BranchID: 1, StartDate: now.AddDate(0, -6, 0), EndDate: now.AddDate(0, -3, 0), Status: "active"}).Error)

	_, err := repo.FindActive(ctx, 7, now)
	assert.ErrorIs(t, err, member.ErrNoActiveMembership)

	require.NoError(t, gdb.Create(&models.MembershipModel{MemberID: 7, BranchID: 1, StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 1, 0), Status: "active"}).Error)
	ms, err := repo.FindActive(ctx, 7, now)
	require.NoError(t, err)
	assert.True(t, ms.IsActiveAt(now))

	m, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Dewi Lestari", m.FullName())

	_, err = repo.GetByID(ctx, 8)
	assert.ErrorIs(t, err, member.ErrMemberNotFound)
}

func TestVendorPersonRepository(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewVendorPersonRepository(gdb, logger.NewNop())
	ctx := context.Background()

	_, err := repo.GetByMember(ctx, 7, 1)
	assert.ErrorIs(t, err, member.ErrVendorPersonNotFound)

	require.NoError(t, repo.Save(ctx, &member.VendorPerson{MemberID: 7, BranchID: 1, PersonID: "P-1"}))
	require.NoError(t, repo.Save(ctx, &member.VendorPerson{MemberID: 7, BranchID: 1, PersonID: "P-2"}))

	p, err := repo.GetByMember(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, "P-2", p.PersonID)

	byPerson, err := repo.GetByPersonID(ctx, 1, "P-2")
	require.NoError(t, err)
	assert.Equal(t, uint(7), byPerson.MemberID)
}

func TestAccessEventRepository_InsertAndProcess(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewAccessEventRepository(gdb, logger.NewNop())
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	memberID := uint(7)

	events := []*attendance.AccessEvent{
		{VendorEventID: "E-2", BranchID: 1, MemberID: &memberID, EventTime: base.Add(time.Hour), EventType: attendance.EventExit},
		{VendorEventID: "E-1", BranchID: 1, MemberID: &memberID, EventTime: base, EventType: attendance.EventEntry},
	}
	n, err := repo.InsertIgnoreDuplicates(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dup := []*attendance.AccessEvent{{VendorEventID: "E-1", BranchID: 1, EventTime: base, EventType: attendance.EventEntry}}
	n, err = repo.InsertIgnoreDuplicates(ctx, dup)
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, err := repo.ListUnprocessed(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "E-1", pending[0].VendorEventID, "oldest first")

	require.NoError(t, repo.SetAnomaly(ctx, pending[1].ID, attendance.AnomalyOrphanExit))
	require.NoError(t, repo.MarkProcessed(ctx, []uint{pending[0].ID, pending[1].ID}, base.Add(2*time.Hour)))

	pending, err = repo.ListUnprocessed(ctx, 1, 100)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var stored models.AccessEventModel
	require.NoError(t, gdb.Where("vendor_event_id = ?", "E-2").First(&stored).Error)
	assert.Equal(t, attendance.AnomalyOrphanExit, stored.Anomaly)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestAttendanceSessionRepository_ClosedNeverOverwritten(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewAttendanceSessionRepository(gdb, logger.NewNop())
	ctx := context.Background()
	checkIn := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	s, err := attendance.NewSession(7, 1, checkIn, "door:1", "member")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, s))

	open, err := repo.FindOpen(ctx, 7, 1)
	require.NoError(t, err)
	require.NotNil(t, open)

	require.NoError(t, open.Close(checkIn.Add(45*time.Minute)))
	require.NoError(t, repo.Update(ctx, open))

	closed, err := repo.FindClosedAt(ctx, 7, 1, checkIn.Add(45*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, 45, *closed.DurationMinutes())

	started, err := repo.FindByCheckIn(ctx, 7, 1, checkIn)
	require.NoError(t, err)
	require.NotNil(t, started)
	assert.Equal(t, open.ID(), started.ID())
	missing, err := repo.FindByCheckIn(ctx, 7, 1, checkIn.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, missing)

	stale := attendance.ReconstructSession(open.ID(), 7, 1, checkIn, nil, nil, attendance.SourceDoorController, "", "", "", checkIn, checkIn)
	require.NoError(t, stale.Close(checkIn.Add(3*time.Hour)))
	assert.ErrorIs(t, repo.Update(ctx, stale), attendance.ErrSessionClosed)

	none, err := repo.FindOpen(ctx, 7, 1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSyncLogRepository_CompleteAndList(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSyncLogRepository(gdb, logger.NewNop())
	ctx := context.Background()

	pending, err := synclog.NewEntry(1, synclog.CategorySync, synclog.StatusPending, "syncing member 7")
	require.NoError(t, err)
	pending.WithEntity("member", "7")
	require.NoError(t, repo.Create(ctx, pending))

	info, err := synclog.NewEntry(1, synclog.CategoryInfo, synclog.StatusSuccess, "session opened")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, info))

	other, err := synclog.NewEntry(2, synclog.CategoryInfo, synclog.StatusSuccess, "other branch")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, other))

	require.NoError(t, pending.Complete(synclog.StatusSuccess, "member 7 synced", map[string]any{"doors": 2}))
	require.NoError(t, repo.CompletePending(ctx, pending))
	assert.ErrorIs(t, repo.CompletePending(ctx, pending), synclog.ErrNotPending)

	got, err := repo.GetByID(ctx, pending.ID())
	require.NoError(t, err)
	assert.Equal(t, synclog.StatusSuccess, got.Status())
	assert.Equal(t, "7", got.Entity().ID)
	assert.EqualValues(t, 2, got.Details()["doors"])

	list, total, err := repo.List(ctx, synclog.Filter{BranchID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	cat := synclog.CategoryInfo
	list, total, err = repo.List(ctx, synclog.Filter{BranchID: 1, Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "session opened", list[0].Message())
}
