package branch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettings_Validate(t *testing.T) {
	valid := Settings{BranchID: 1, BaseURL: "https://acs.example.com", AppKey: "k", AppSecret: "s", IsActive: true}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(s *Settings)
		errMsg string
	}{
		{"missing branch", func(s *Settings) { s.BranchID = 0 }, "branch ID"},
		{"blank key", func(s *Settings) { s.AppKey = "  " }, "app key"},
		{"missing secret", func(s *Settings) { s.AppSecret = "" }, "app secret"},
		{"relative url", func(s *Settings) { s.BaseURL = "/api" }, "base URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			assert.ErrorContains(t, s.Validate(), tt.errMsg)
		})
	}
}

func TestSettings_Endpoint(t *testing.T) {
	s := Settings{BaseURL: "https://acs.example.com/"}
	assert.Equal(t, "https://acs.example.com/token/get", s.Endpoint("/token/get"))
}

func TestToken_RefreshWindow(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	threshold := 24 * time.Hour

	fresh := &Token{Value: "t", ExpiresAt: now.Add(48 * time.Hour)}
	assert.True(t, fresh.IsUsable(now))
	assert.False(t, fresh.InRefreshWindow(now, threshold))

	ageing := &Token{Value: "t", ExpiresAt: now.Add(2 * time.Hour)}
	assert.True(t, ageing.InRefreshWindow(now, threshold))

	expired := &Token{Value: "t", ExpiresAt: now.Add(-time.Second)}
	assert.False(t, expired.IsUsable(now))
	assert.False(t, expired.InRefreshWindow(now, threshold))

	var missing *Token
	assert.False(t, missing.IsUsable(now))
}
