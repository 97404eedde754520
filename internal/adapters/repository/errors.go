package repository

import "errors"

// Sentinel kinds for ranking store errors.
var (
	ErrNotFound         = errors.New("employee not ranked for role")
	ErrRoleNotPublished = errors.New("no ranking published for role")
	ErrInvalidLimit     = errors.New("invalid ranking limit")
	ErrMixedRoles       = errors.New("results belong to another role or version")
)
