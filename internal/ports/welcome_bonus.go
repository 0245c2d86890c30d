package ports

import "context"

// WelcomeBonusPort seeds a new player's wallet exactly once.
type WelcomeBonusPort interface {
	// GrantWelcomeBonusOnce credits the starting bonus, reporting
	// granted=false when the player already received it.
	GrantWelcomeBonusOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error)
}
