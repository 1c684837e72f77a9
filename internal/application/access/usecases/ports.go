// Package usecases pushes member credentials and door privileges to the
// branch's door controller.
package usecases

import (
	"context"

	appsynclog "github.com/gymdesk/accessbridge/internal/application/synclog"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/accessvendor"
)

// AccessChecker is implemented by services.AccessResolver.
type AccessChecker interface {
	HasZoneAccess(ctx context.Context, memberID, zoneID uint) (bool, error)
}

// DoorController is implemented by accessvendor.DoorController.
type DoorController interface {
	UpsertPerson(ctx context.Context, branchID uint, p accessvendor.Person) (string, error)
	ConfigureAccess(ctx context.Context, branchID uint, priv accessvendor.AccessPrivilege) error
	BindCard(ctx context.Context, branchID uint, personID, cardNumber string) error
	SyncDevices(ctx context.Context, branchID uint, deviceIDs []string) error
}

// SyncLogRecorder is implemented by the application sync log recorder.
type SyncLogRecorder interface {
	Log(ctx context.Context, rec synclog.Record)
	Begin(ctx context.Context, rec synclog.Record) *appsynclog.Pending
}
