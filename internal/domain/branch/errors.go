package branch

import "errors"

var (
	ErrSettingsNotFound = errors.New("branch vendor settings not found")
	ErrTokenNotFound    = errors.New("vendor token not found")
)
