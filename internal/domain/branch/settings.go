// Package branch holds the per-branch vendor connection settings and the
// persisted vendor token.
package branch

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Settings are the vendor API credentials of one gym branch. Each branch
// talks to its own vendor tenant.
type Settings struct {
	BranchID  uint
	BaseURL   string
	AppKey    string
	AppSecret string
	OrgCode   string
	IsActive  bool
	UpdatedAt time.Time
}

// Validate reports settings that cannot be used to reach the vendor.
func (s *Settings) Validate() error {
	if s.BranchID == 0 {
		return fmt.Errorf("branch ID is required")
	}
	if strings.TrimSpace(s.AppKey) == "" {
		return fmt.Errorf("app key is required")
	}
	if strings.TrimSpace(s.AppSecret) == "" {
		return fmt.Errorf("app secret is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid vendor base URL %q", s.BaseURL)
	}
	return nil
}

// Endpoint joins the vendor base URL and an API path.
func (s *Settings) Endpoint(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
