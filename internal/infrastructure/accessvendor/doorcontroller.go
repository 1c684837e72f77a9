package accessvendor

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	PathUpsertPerson    = "/api/person/v1/upsert"
	PathConfigureAccess = "/api/acs/v1/privilege/config"
	PathBindCard        = "/api/card/v1/bind"
	PathSyncDevices     = "/api/device/v1/sync"
)

// Caller is satisfied by *Gateway.
type Caller interface {
	Call(ctx context.Context, branchID uint, endpoint, method string, body any) (*Response, error)
}

// Person is the vendor's view of a member.
type Person struct {
	PersonCode           string   `json:"personCode"`
	PersonName           string   `json:"personName"`
	OrgCode              string   `json:"orgCode"`
	Phone                string   `json:"phone,omitempty"`
	CardNumbers          []string `json:"cardNumbers,omitempty"`
	FaceTemplates        []string `json:"faceTemplates,omitempty"`
	FingerprintTemplates []string `json:"fingerprintTemplates,omitempty"`
}

type upsertPersonData struct {
	PersonID string `json:"personId"`
}

// AccessPrivilege grants a vendor person entry through DoorIDs for the
// validity window.
type AccessPrivilege struct {
	PersonID  string
	DoorIDs   []string
	StartTime time.Time
	EndTime   time.Time
}

type privilegeRequest struct {
	PersonID  string   `json:"personId"`
	DoorIDs   []string `json:"doorIds"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
}

type bindCardRequest struct {
	PersonID   string `json:"personId"`
	CardNumber string `json:"cardNo"`
}

type syncDevicesRequest struct {
	DeviceIDs []string `json:"deviceIds"`
}

// DoorController exposes the typed vendor operations used by credential
// sync.
type DoorController struct {
	caller Caller
}

func NewDoorController(caller Caller) *DoorController {
	return &DoorController{caller: caller}
}

// UpsertPerson creates or updates the person and returns the vendor person id.
func (c *DoorController) UpsertPerson(ctx context.Context, branchID uint, p Person) (string, error) {
	resp, err := c.caller.Call(ctx, branchID, PathUpsertPerson, http.MethodPost, p)
	if err != nil {
		return "", err
	}
	var data upsertPersonData
	if err := resp.Decode(&data); err != nil {
		return "", err
	}
	if data.PersonID == "" {
		return "", fmt.Errorf("vendor %s returned no person id", PathUpsertPerson)
	}
	return data.PersonID, nil
}

func (c *DoorController) ConfigureAccess(ctx context.Context, branchID uint, priv AccessPrivilege) error {
	req := privilegeRequest{
		PersonID:  priv.PersonID,
		DoorIDs:   priv.DoorIDs,
		StartTime: priv.StartTime.UTC().Format(time.RFC3339),
		EndTime:   priv.EndTime.UTC().Format(time.RFC3339),
	}
	_, err := c.caller.Call(ctx, branchID, PathConfigureAccess, http.MethodPost, req)
	return err
}

func (c *DoorController) BindCard(ctx context.Context, branchID uint, personID, cardNumber string) error {
	_, err := c.caller.Call(ctx, branchID, PathBindCard, http.MethodPost, bindCardRequest{
		PersonID:   personID,
		CardNumber: cardNumber,
	})
	return err
}

// SyncDevices asks the vendor to push pending changes to the devices.
func (c *DoorController) SyncDevices(ctx context.Context, branchID uint, deviceIDs []string) error {
	if len(deviceIDs) == 0 {
		return nil
	}
	_, err := c.caller.Call(ctx, branchID, PathSyncDevices, http.MethodPost, syncDevicesRequest{DeviceIDs: deviceIDs})
	return err
}
