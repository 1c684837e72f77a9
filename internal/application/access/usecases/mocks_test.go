package usecases

import (
	"context"
	"sync"
	"time"

	appsynclog "github.com/gymdesk/accessbridge/internal/application/synclog"
	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/domain/member"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/accessvendor"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

type mockMemberRepo struct {
	GetByIDFunc func(ctx context.Context, memberID uint) (*member.Member, error)
}

func (m *mockMemberRepo) GetByID(ctx context.Context, memberID uint) (*member.Member, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, memberID)
	}
	return &member.Member{ID: memberID, FirstName: "Ada", LastName: "Lovelace", Role: member.RoleMember}, nil
}

func (m *mockMemberRepo) GetByIDs(ctx context.Context, memberIDs []uint) (map[uint]*member.Member, error) {
	out := make(map[uint]*member.Member, len(memberIDs))
	for _, id := range memberIDs {
		mem, err := m.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out[id] = mem
	}
	return out, nil
}

type mockMembershipRepo struct {
	FindActiveFunc func(ctx context.Context, memberID uint, at time.Time) (*member.Membership, error)
}

func (m *mockMembershipRepo) FindActive(ctx context.Context, memberID uint, at time.Time) (*member.Membership, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, memberID, at)
	}
	return &member.Membership{
		ID:        5,
		MemberID:  memberID,
		Status:    member.MembershipActive,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}, nil
}

type mockCredentialRepo struct {
	ListActiveByMemberFunc func(ctx context.Context, memberID uint) ([]*member.Credential, error)
	FindByValueFunc        func(ctx context.Context, memberID uint, credType member.CredentialType, value string) (*member.Credential, error)
	SaveFunc               func(ctx context.Context, cred *member.Credential) error
	DeactivateAllFunc      func(ctx context.Context, memberID uint, at time.Time) (int64, error)
	saved                  []*member.Credential
}

func (m *mockCredentialRepo) ListActiveByMember(ctx context.Context, memberID uint) ([]*member.Credential, error) {
	if m.ListActiveByMemberFunc != nil {
		return m.ListActiveByMemberFunc(ctx, memberID)
	}
	return nil, nil
}

func (m *mockCredentialRepo) FindByValue(ctx context.Context, memberID uint, credType member.CredentialType, value string) (*member.Credential, error) {
	if m.FindByValueFunc != nil {
		return m.FindByValueFunc(ctx, memberID, credType, value)
	}
	return nil, nil
}

func (m *mockCredentialRepo) Save(ctx context.Context, cred *member.Credential) error {
	m.saved = append(m.saved, cred)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, cred)
	}
	if cred.ID() == 0 {
		cred.SetID(uint(len(m.saved)))
	}
	return nil
}

func (m *mockCredentialRepo) DeactivateAll(ctx context.Context, memberID uint, at time.Time) (int64, error) {
	if m.DeactivateAllFunc != nil {
		return m.DeactivateAllFunc(ctx, memberID, at)
	}
	return 0, nil
}

type mockVendorPersonRepo struct {
	GetByMemberFunc func(ctx context.Context, memberID, branchID uint) (*member.VendorPerson, error)
	saved           []*member.VendorPerson
}

func (m *mockVendorPersonRepo) GetByMember(ctx context.Context, memberID, branchID uint) (*member.VendorPerson, error) {
	if m.GetByMemberFunc != nil {
		return m.GetByMemberFunc(ctx, memberID, branchID)
	}
	return nil, member.ErrVendorPersonNotFound
}

func (m *mockVendorPersonRepo) GetByPersonID(_ context.Context, _ uint, _ string) (*member.VendorPerson, error) {
	return nil, member.ErrVendorPersonNotFound
}

func (m *mockVendorPersonRepo) Save(_ context.Context, p *member.VendorPerson) error {
	m.saved = append(m.saved, p)
	return nil
}

type mockZoneRepo struct {
	zones []*access.Zone
}

func (m *mockZoneRepo) ListByBranch(_ context.Context, _ uint) ([]*access.Zone, error) {
	return m.zones, nil
}

type mockDoorRepo struct {
	byZone map[uint][]*access.Door
}

func (m *mockDoorRepo) ListActiveByZones(_ context.Context, zoneIDs []uint) ([]*access.Door, error) {
	var out []*access.Door
	for _, id := range zoneIDs {
		out = append(out, m.byZone[id]...)
	}
	return out, nil
}

func (m *mockDoorRepo) ListActiveByBranch(_ context.Context, _ uint) ([]*access.Door, error) {
	var out []*access.Door
	for _, doors := range m.byZone {
		out = append(out, doors...)
	}
	return out, nil
}

func (m *mockDoorRepo) GetByVendorDoorID(_ context.Context, _ uint, _ string) (*access.Door, error) {
	return nil, nil
}

type mockSettingsRepo struct{}

func (mockSettingsRepo) GetByBranchID(_ context.Context, branchID uint) (*branch.Settings, error) {
	return &branch.Settings{BranchID: branchID, OrgCode: "ORG-1", IsActive: true}, nil
}

func (mockSettingsRepo) ListActive(context.Context) ([]*branch.Settings, error) { return nil, nil }
func (mockSettingsRepo) Save(context.Context, *branch.Settings) error           { return nil }

type mockAccessChecker struct {
	allowed map[uint]bool
}

func (m *mockAccessChecker) HasZoneAccess(_ context.Context, _ uint, zoneID uint) (bool, error) {
	return m.allowed[zoneID], nil
}

type mockDoorController struct {
	UpsertPersonFunc    func(ctx context.Context, branchID uint, p accessvendor.Person) (string, error)
	ConfigureAccessFunc func(ctx context.Context, branchID uint, priv accessvendor.AccessPrivilege) error
	BindCardFunc        func(ctx context.Context, branchID uint, personID, cardNumber string) error

	upserts   []accessvendor.Person
	configs   []accessvendor.AccessPrivilege
	binds     []string
	syncCalls [][]string
}

func (m *mockDoorController) UpsertPerson(ctx context.Context, branchID uint, p accessvendor.Person) (string, error) {
	m.upserts = append(m.upserts, p)
	if m.UpsertPersonFunc != nil {
		return m.UpsertPersonFunc(ctx, branchID, p)
	}
	return "P-" + p.PersonCode, nil
}

func (m *mockDoorController) ConfigureAccess(ctx context.Context, branchID uint, priv accessvendor.AccessPrivilege) error {
	m.configs = append(m.configs, priv)
	if m.ConfigureAccessFunc != nil {
		return m.ConfigureAccessFunc(ctx, branchID, priv)
	}
	return nil
}

func (m *mockDoorController) BindCard(ctx context.Context, branchID uint, personID, cardNumber string) error {
	m.binds = append(m.binds, personID+"/"+cardNumber)
	if m.BindCardFunc != nil {
		return m.BindCardFunc(ctx, branchID, personID, cardNumber)
	}
	return nil
}

func (m *mockDoorController) SyncDevices(_ context.Context, _ uint, deviceIDs []string) error {
	m.syncCalls = append(m.syncCalls, deviceIDs)
	return nil
}

func (m *mockDoorController) vendorCalls() int {
	return len(m.upserts) + len(m.configs) + len(m.binds) + len(m.syncCalls)
}

// memorySyncLogRepo backs a real Recorder in tests.
type memorySyncLogRepo struct {
	mu      sync.Mutex
	entries []*synclog.Entry
}

func (r *memorySyncLogRepo) Create(_ context.Context, e *synclog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memorySyncLogRepo) CompletePending(_ context.Context, _ *synclog.Entry) error {
	return nil
}

func (r *memorySyncLogRepo) GetByID(_ context.Context, id string) (*synclog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID() == id {
			return e, nil
		}
	}
	return nil, synclog.ErrEntryNotFound
}

func (r *memorySyncLogRepo) List(_ context.Context, _ synclog.Filter) ([]*synclog.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries, int64(len(r.entries)), nil
}

func (r *memorySyncLogRepo) statuses() []synclog.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]synclog.Status, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Status())
	}
	return out
}

func newTestRecorder() (*appsynclog.Recorder, *memorySyncLogRepo) {
	repo := &memorySyncLogRepo{}
	return appsynclog.NewRecorder(repo, logger.NewNop()), repo
}
