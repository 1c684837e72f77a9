package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymdesk/accessbridge/internal/application/access/usecases"
	"github.com/gymdesk/accessbridge/internal/infrastructure/accessvendor"
	"github.com/gymdesk/accessbridge/internal/interfaces/http/handlers/testutil"
	"github.com/gymdesk/accessbridge/internal/shared/errors"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockSyncMemberUC struct {
	result   *usecases.SyncMemberResult
	err      error
	memberID uint
	branchID uint
}

func (m *mockSyncMemberUC) Execute(ctx context.Context, memberID, branchID uint) (*usecases.SyncMemberResult, error) {
	m.memberID, m.branchID = memberID, branchID
	return m.result, m.err
}

type mockRegisterCardUC struct {
	result *usecases.RegisterCardResult
	err    error
	cmd    usecases.RegisterCardCommand
}

func (m *mockRegisterCardUC) Execute(ctx context.Context, cmd usecases.RegisterCardCommand) (*usecases.RegisterCardResult, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockRevokeUC struct {
	n   int64
	err error
}

func (m *mockRevokeUC) Execute(ctx context.Context, branchID, memberID uint) (int64, error) {
	return m.n, m.err
}

type mockChecker struct {
	allowed bool
	err     error
}

func (m *mockChecker) HasZoneAccess(ctx context.Context, memberID, zoneID uint) (bool, error) {
	return m.allowed, m.err
}

func newTestAccessHandler(sync syncMemberUseCase, register registerCardUseCase, revoke revokeCredentialsUseCase, checker zoneAccessChecker) *AccessHandler {
	return NewAccessHandler(sync, register, revoke, checker, logger.NewNop())
}

// =====================================================================
// SyncMember
// =====================================================================

func TestAccessHandler_SyncMember_Success(t *testing.T) {
	uc := &mockSyncMemberUC{result: &usecases.SyncMemberResult{
		Synced:        true,
		PersonID:      "P-1",
		DoorIDs:       []string{"D1", "D2"},
		CredentialIDs: []uint{7},
	}}
	handler := newTestAccessHandler(uc, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/branches/3/members/42/sync", nil)
	testutil.SetURLParam(c, "branch_id", "3")
	testutil.SetURLParam(c, "member_id", "42")

	handler.SyncMember(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), uc.memberID)
	assert.Equal(t, uint(3), uc.branchID)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)

	var data SyncMemberResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Synced)
	assert.Equal(t, "P-1", data.PersonID)
	assert.Equal(t, []string{"D1", "D2"}, data.DoorIDs)
}

func TestAccessHandler_SyncMember_SkippedHasEmptyLists(t *testing.T) {
	uc := &mockSyncMemberUC{result: &usecases.SyncMemberResult{Synced: false, Reason: "no usable credentials"}}
	handler := newTestAccessHandler(uc, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/branches/3/members/42/sync", nil)
	testutil.SetURLParam(c, "branch_id", "3")
	testutil.SetURLParam(c, "member_id", "42")

	handler.SyncMember(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"door_ids":[]`)
	assert.Contains(t, w.Body.String(), "no usable credentials")
}

func TestAccessHandler_SyncMember_InvalidParam(t *testing.T) {
	handler := newTestAccessHandler(&mockSyncMemberUC{}, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/branches/x/members/42/sync", nil)
	testutil.SetURLParam(c, "branch_id", "x")
	testutil.SetURLParam(c, "member_id", "42")

	handler.SyncMember(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccessHandler_SyncMember_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantType string
	}{
		{"config", &accessvendor.ConfigError{BranchID: 3, Reason: "integration inactive"}, http.StatusFailedDependency, string(errors.ErrorTypeConfiguration)},
		{"auth", &accessvendor.AuthError{BranchID: 3, Status: 401}, http.StatusBadGateway, string(errors.ErrorTypeUpstream)},
		{"vendor code", &accessvendor.VendorError{Endpoint: "/api/person/v1/upsert", Code: "PERSON_NOT_FOUND"}, http.StatusBadGateway, string(errors.ErrorTypeUpstream)},
		{"exhausted", &accessvendor.CallError{Endpoint: "/api/acs/v1/privilege/config", Status: 500, Attempts: 3}, http.StatusBadGateway, string(errors.ErrorTypeUpstream)},
		{"app error", errors.NewNotFoundError("member not found"), http.StatusNotFound, string(errors.ErrorTypeNotFound)},
		{"unknown", stderrors.New("db down"), http.StatusInternalServerError, string(errors.ErrorTypeInternal)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestAccessHandler(&mockSyncMemberUC{err: tt.err}, nil, nil, nil)

			c, w := testutil.NewTestContext(http.MethodPost, "/branches/3/members/42/sync", nil)
			testutil.SetURLParam(c, "branch_id", "3")
			testutil.SetURLParam(c, "member_id", "42")

			handler.SyncMember(c)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantType, resp.Error.Type)
		})
	}
}

// =====================================================================
// RegisterCard
// =====================================================================

func TestAccessHandler_RegisterCard_Success(t *testing.T) {
	uc := &mockRegisterCardUC{result: &usecases.RegisterCardResult{
		PersonID:      "P-9",
		CredentialID:  12,
		PersonCreated: true,
		DevicesSynced: 2,
	}}
	handler := newTestAccessHandler(nil, uc, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/branches/3/members/42/cards", RegisterCardRequest{CardNumber: "0012345678"})
	testutil.SetURLParam(c, "branch_id", "3")
	testutil.SetURLParam(c, "member_id", "42")

	handler.RegisterCard(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, usecases.RegisterCardCommand{BranchID: 3, MemberID: 42, CardNumber: "0012345678"}, uc.cmd)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data RegisterCardResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, uint(12), data.CredentialID)
	assert.Equal(t, 2, data.DevicesSynced)
}

func TestAccessHandler_RegisterCard_MissingCard(t *testing.T) {
	uc := &mockRegisterCardUC{}
	handler := newTestAccessHandler(nil, uc, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/branches/3/members/42/cards", map[string]string{})
	testutil.SetURLParam(c, "branch_id", "3")
	testutil.SetURLParam(c, "member_id", "42")

	handler.RegisterCard(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, uc.cmd.MemberID)
}

// =====================================================================
// RevokeCredentials
// =====================================================================

func TestAccessHandler_RevokeCredentials(t *testing.T) {
	handler := newTestAccessHandler(nil, nil, &mockRevokeUC{n: 2}, nil)

	c, w := testutil.NewTestContext(http.MethodDelete, "/branches/3/members/42/credentials", nil)
	testutil.SetURLParam(c, "branch_id", "3")
	testutil.SetURLParam(c, "member_id", "42")

	handler.RevokeCredentials(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deactivated":2`)
}

// =====================================================================
// CheckZoneAccess
// =====================================================================

func TestAccessHandler_CheckZoneAccess(t *testing.T) {
	tests := []struct {
		name         string
		checker      *mockChecker
		wantAllowed  bool
		wantDegraded bool
	}{
		{"allowed", &mockChecker{allowed: true}, true, false},
		{"denied", &mockChecker{allowed: false}, false, false},
		{"fails closed", &mockChecker{allowed: true, err: stderrors.New("store down")}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestAccessHandler(nil, nil, nil, tt.checker)

			c, w := testutil.NewTestContext(http.MethodGet, "/members/42/zones/5/access", nil)
			testutil.SetURLParam(c, "member_id", "42")
			testutil.SetURLParam(c, "zone_id", "5")

			handler.CheckZoneAccess(c)

			assert.Equal(t, http.StatusOK, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			var data ZoneAccessResponse
			require.NoError(t, json.Unmarshal(resp.Data, &data))
			assert.Equal(t, tt.wantAllowed, data.Allowed)
			assert.Equal(t, tt.wantDegraded, data.Degraded)
			assert.Equal(t, uint(5), data.ZoneID)
		})
	}
}
