package http

import (
	"gorm.io/gorm"

	"github.com/gymdesk/accessbridge/internal/domain/attendance"
	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/repository"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// repositories holds every store adapter the use cases depend on.
type repositories struct {
	settings      branch.SettingsRepository
	tokens        branch.TokenRepository
	access        *repository.AccessRepository
	members       *repository.MemberRepository
	credentials   member.CredentialRepository
	vendorPersons member.VendorPersonRepository
	events        attendance.EventRepository
	sessions      attendance.SessionRepository
	syncLogs      synclog.Repository
}

func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		settings:      repository.NewBranchSettingsRepository(db, log),
		tokens:        repository.NewVendorTokenRepository(db, log),
		access:        repository.NewAccessRepository(db, log),
		members:       repository.NewMemberRepository(db, log),
		credentials:   repository.NewCredentialRepository(db, log),
		vendorPersons: repository.NewVendorPersonRepository(db, log),
		events:        repository.NewAccessEventRepository(db, log),
		sessions:      repository.NewAttendanceSessionRepository(db, log),
		syncLogs:      repository.NewSyncLogRepository(db, log),
	}
}
