package ports

import "context"

// WalletUpdate is one credit change applied to a player's wallet.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort defines the credit wallets that games settle into.
type EconomyPort interface {
	// GetBalance retrieves the current credit balance for a player.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies multiple wallet changes atomically.
	// This is used at the end of a game to settle winnings.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
