package accessvendor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
)

type fakeSettingsRepo struct {
	settings map[uint]*branch.Settings
}

func newFakeSettingsRepo(s ...*branch.Settings) *fakeSettingsRepo {
	r := &fakeSettingsRepo{settings: make(map[uint]*branch.Settings)}
	for _, item := range s {
		r.settings[item.BranchID] = item
	}
	return r
}

func (r *fakeSettingsRepo) GetByBranchID(_ context.Context, branchID uint) (*branch.Settings, error) {
	s, ok := r.settings[branchID]
	if !ok {
		return nil, branch.ErrSettingsNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSettingsRepo) ListActive(_ context.Context) ([]*branch.Settings, error) {
	var out []*branch.Settings
	for _, s := range r.settings {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSettingsRepo) Save(_ context.Context, s *branch.Settings) error {
	r.settings[s.BranchID] = s
	return nil
}

type fakeTokenStore struct {
	mu      sync.Mutex
	tokens  map[uint]branch.Token
	deletes int
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[uint]branch.Token)}
}

func (s *fakeTokenStore) Get(_ context.Context, branchID uint) (*branch.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[branchID]
	if !ok {
		return nil, branch.ErrTokenNotFound
	}
	return &tok, nil
}

func (s *fakeTokenStore) Save(_ context.Context, tok *branch.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tok.BranchID] = *tok
	return nil
}

func (s *fakeTokenStore) Delete(_ context.Context, branchID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, branchID)
	s.deletes++
	return nil
}

type recordingSyncLog struct {
	mu      sync.Mutex
	records []synclog.Record
}

func (l *recordingSyncLog) Log(_ context.Context, rec synclog.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

func (l *recordingSyncLog) byCategory(c synclog.Category) []synclog.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []synclog.Record
	for _, r := range l.records {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

type fakeTokenSource struct {
	GetTokenFunc func(ctx context.Context, branchID uint) (string, error)
	evictions    atomic.Int32
}

func (f *fakeTokenSource) GetToken(ctx context.Context, branchID uint) (string, error) {
	if f.GetTokenFunc != nil {
		return f.GetTokenFunc(ctx, branchID)
	}
	return "tok-1", nil
}

func (f *fakeTokenSource) Evict(_ context.Context, _ uint) {
	f.evictions.Add(1)
}

type fakeLimiter struct {
	AllowFunc func(ctx context.Context, key string) (bool, error)
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return f.AllowFunc(ctx, key)
}

// vendorStub serves the token endpoint and routes everything else to api.
type vendorStub struct {
	server     *httptest.Server
	tokenCalls atomic.Int32
	apiCalls   atomic.Int32
	token      http.HandlerFunc
	api        http.HandlerFunc
}

func newVendorStub(token, api http.HandlerFunc) *vendorStub {
	v := &vendorStub{token: token, api: api}
	v.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath {
			v.tokenCalls.Add(1)
			v.token(w, r)
			return
		}
		v.apiCalls.Add(1)
		v.api(w, r)
	}))
	return v
}

func (v *vendorStub) Close() { v.server.Close() }

func (v *vendorStub) settings(branchID uint) *branch.Settings {
	return &branch.Settings{
		BranchID:  branchID,
		BaseURL:   v.server.URL,
		AppKey:    "app-key",
		AppSecret: "app-secret",
		OrgCode:   "ORG1",
		IsActive:  true,
	}
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func tokenHandler(value string, expiresIn time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK,
			`{"code":"0","msg":"","data":{"access_token":"`+value+`","expires_in":`+strconv.FormatInt(int64(expiresIn/time.Second), 10)+`}}`)
	}
}

func okHandler(data string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"code":"0","msg":"","data":`+data+`}`)
	}
}
