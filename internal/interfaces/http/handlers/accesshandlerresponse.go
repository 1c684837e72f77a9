package handlers

import (
	"time"

	"github.com/gymdesk/accessbridge/internal/application/access/usecases"
)

type SyncMemberResponse struct {
	Synced        bool     `json:"synced"`
	PersonID      string   `json:"person_id,omitempty"`
	DoorIDs       []string `json:"door_ids"`
	CredentialIDs []uint   `json:"credential_ids"`
	Reason        string   `json:"reason,omitempty"`
}

func toSyncMemberResponse(r *usecases.SyncMemberResult) SyncMemberResponse {
	resp := SyncMemberResponse{
		Synced:        r.Synced,
		PersonID:      r.PersonID,
		DoorIDs:       r.DoorIDs,
		CredentialIDs: r.CredentialIDs,
		Reason:        r.Reason,
	}
	if resp.DoorIDs == nil {
		resp.DoorIDs = []string{}
	}
	if resp.CredentialIDs == nil {
		resp.CredentialIDs = []uint{}
	}
	return resp
}

type RegisterCardResponse struct {
	PersonID      string `json:"person_id"`
	CredentialID  uint   `json:"credential_id"`
	PersonCreated bool   `json:"person_created"`
	DevicesSynced int    `json:"devices_synced"`
}

type RevokeCredentialsResponse struct {
	Deactivated int64 `json:"deactivated"`
}

type ZoneAccessResponse struct {
	MemberID  uint      `json:"member_id"`
	ZoneID    uint      `json:"zone_id"`
	Allowed   bool      `json:"allowed"`
	Degraded  bool      `json:"degraded,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
