package branch

import "context"

type SettingsRepository interface {
	// GetByBranchID returns ErrSettingsNotFound when the branch has no settings row.
	GetByBranchID(ctx context.Context, branchID uint) (*Settings, error)
	ListActive(ctx context.Context) ([]*Settings, error)
	Save(ctx context.Context, settings *Settings) error
}

type TokenRepository interface {
	// Get returns ErrTokenNotFound when no token is stored for the branch.
	Get(ctx context.Context, branchID uint) (*Token, error)
	Save(ctx context.Context, token *Token) error
	Delete(ctx context.Context, branchID uint) error
}
