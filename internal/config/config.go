package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// BidSlot is one entry of the fixed bidding board. Positive amounts are paid
// by the bidder, negative amounts are received. Gated slots are offered only
// in games with five or more players.
type BidSlot struct {
	Amount              int  `json:"amount"`
	RequiresFivePlayers bool `json:"requires_five_players"`
}

// GameConfig holds every tunable of the rules engine plus match runtime
// knobs. Zero values are replaced by defaults on load.
type GameConfig struct {
	MinPlayers int `json:"min_players"`
	MaxPlayers int `json:"max_players"`
	MaxRounds  int `json:"max_rounds"`

	StartingCash    int `json:"starting_cash"`
	InitialHoldings int `json:"initial_holdings"`

	MinPrice   int `json:"min_price"`
	MaxPrice   int `json:"max_price"`
	StartPrice int `json:"start_price"`

	BuyLimit  int `json:"buy_limit"`
	SellLimit int `json:"sell_limit"`

	JackpotIncrement  int `json:"jackpot_increment"`
	TaxPerUnit        int `json:"tax_per_unit"`
	DividendPerUnit   int `json:"dividend_per_unit"`
	GambleCostPerUnit int `json:"gamble_cost_per_unit"`

	BidSlots []BidSlot `json:"bid_slots"`

	// TurnDurationSeconds bounds every pending decision; on expiry the match
	// handler submits a legal default response for the stalled player.
	TurnDurationSeconds int `json:"turn_duration_seconds"`

	BotMinDelaySeconds      int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds      int `json:"bot_max_delay_seconds"`
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`

	// PayoutRate converts final in-game cash to wallet currency at
	// settlement.
	PayoutRate int64 `json:"payout_rate"`
}

// Default returns the standard rule set.
func Default() *GameConfig {
	return &GameConfig{
		MinPlayers:        3,
		MaxPlayers:        6,
		MaxRounds:         7,
		StartingCash:      5,
		InitialHoldings:   3,
		MinPrice:          0,
		MaxPrice:          8,
		StartPrice:        4,
		BuyLimit:          2,
		SellLimit:         3,
		JackpotIncrement:  2,
		TaxPerUnit:        1,
		DividendPerUnit:   2,
		GambleCostPerUnit: 3,
		BidSlots: []BidSlot{
			{Amount: 8},
			{Amount: 5},
			{Amount: 3},
			{Amount: 2},
			{Amount: 1, RequiresFivePlayers: true},
			{Amount: 0},
			{Amount: 0},
			{Amount: -1},
			{Amount: -3},
		},
		TurnDurationSeconds:     45,
		BotMinDelaySeconds:      1,
		BotMaxDelaySeconds:      3,
		BotAutoFillDelaySeconds: 10,
		PayoutRate:              100,
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path once.
// Missing fields fall back to defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := Default()
		if err := json.Unmarshal(data, c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		c.fillDefaults()
		cfg = c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or defaults when no file
// was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return Default()
	}
	return cfg
}

func (c *GameConfig) fillDefaults() {
	d := Default()
	if c.MinPlayers == 0 {
		c.MinPlayers = d.MinPlayers
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = d.MaxPlayers
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = d.MaxRounds
	}
	if c.StartingCash == 0 {
		c.StartingCash = d.StartingCash
	}
	if c.InitialHoldings == 0 {
		c.InitialHoldings = d.InitialHoldings
	}
	if c.MaxPrice == 0 {
		c.MaxPrice = d.MaxPrice
	}
	if c.StartPrice == 0 {
		c.StartPrice = d.StartPrice
	}
	if c.BuyLimit == 0 {
		c.BuyLimit = d.BuyLimit
	}
	if c.SellLimit == 0 {
		c.SellLimit = d.SellLimit
	}
	if c.JackpotIncrement == 0 {
		c.JackpotIncrement = d.JackpotIncrement
	}
	if c.TaxPerUnit == 0 {
		c.TaxPerUnit = d.TaxPerUnit
	}
	if c.DividendPerUnit == 0 {
		c.DividendPerUnit = d.DividendPerUnit
	}
	if c.GambleCostPerUnit == 0 {
		c.GambleCostPerUnit = d.GambleCostPerUnit
	}
	if len(c.BidSlots) == 0 {
		c.BidSlots = d.BidSlots
	}
	if c.TurnDurationSeconds == 0 {
		c.TurnDurationSeconds = d.TurnDurationSeconds
	}
	if c.BotMinDelaySeconds == 0 {
		c.BotMinDelaySeconds = d.BotMinDelaySeconds
	}
	if c.BotMaxDelaySeconds == 0 {
		c.BotMaxDelaySeconds = d.BotMaxDelaySeconds
	}
	if c.BotAutoFillDelaySeconds == 0 {
		c.BotAutoFillDelaySeconds = d.BotAutoFillDelaySeconds
	}
	if c.PayoutRate == 0 {
		c.PayoutRate = d.PayoutRate
	}
}
