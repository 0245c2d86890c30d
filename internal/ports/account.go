package ports

import "context"

// AccountPort updates player profiles, used by onboarding to assign the
// generated display name.
type AccountPort interface {
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}
