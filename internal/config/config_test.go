package config

import "testing"

func TestDefaultRuleSet(t *testing.T) {
	c := Default()

	if c.MinPlayers != 3 || c.MaxPlayers != 6 {
		t.Fatalf("player bounds = %d..%d, want 3..6", c.MinPlayers, c.MaxPlayers)
	}
	if c.MaxRounds != 7 {
		t.Fatalf("max rounds = %d, want 7", c.MaxRounds)
	}
	if c.MinPrice != 0 || c.MaxPrice != 8 || c.StartPrice != 4 {
		t.Fatalf("price corridor = %d/%d/%d, want 0/8/4", c.MinPrice, c.MaxPrice, c.StartPrice)
	}
	if c.BuyLimit != 2 || c.SellLimit != 3 {
		t.Fatalf("trade limits = %d/%d, want 2/3", c.BuyLimit, c.SellLimit)
	}
	if len(c.BidSlots) != 9 {
		t.Fatalf("bid slots = %d, want 9", len(c.BidSlots))
	}

	gated := 0
	for _, slot := range c.BidSlots {
		if slot.RequiresFivePlayers {
			gated++
		}
	}
	if gated != 1 {
		t.Fatalf("gated slots = %d, want 1", gated)
	}
}

func TestFillDefaultsReplacesZeroValues(t *testing.T) {
	c := &GameConfig{MaxRounds: 5, StartingCash: 10}
	c.fillDefaults()

	if c.MaxRounds != 5 {
		t.Fatalf("explicit max rounds overwritten: %d", c.MaxRounds)
	}
	if c.StartingCash != 10 {
		t.Fatalf("explicit starting cash overwritten: %d", c.StartingCash)
	}
	if c.MinPlayers != 3 {
		t.Fatalf("min players = %d, want default 3", c.MinPlayers)
	}
	if len(c.BidSlots) != 9 {
		t.Fatalf("bid slots = %d, want default 9", len(c.BidSlots))
	}
	if c.TurnDurationSeconds != 45 {
		t.Fatalf("turn duration = %d, want default 45", c.TurnDurationSeconds)
	}
}

func TestGetGameConfigWithoutLoadReturnsDefaults(t *testing.T) {
	c := GetGameConfig()
	if c == nil {
		t.Fatal("nil config")
	}
	if c.StartPrice != 4 {
		t.Fatalf("start price = %d, want 4", c.StartPrice)
	}
}
