package app

import (
	"errors"
	"testing"

	"stockraid/internal/domain"
)

func TestBuyPaysAnchoredPriceAcrossTicks(t *testing.T) {
	e := newStartedEngine(t, 3, 21)
	driveToMain(t, e)

	actor := e.Pending().Actor
	setCash(e, actor, 20)
	inst := e.Instruments()[0]
	startPrice := e.Price(inst)

	if _, err := e.Buy(actor, inst); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if got := e.Price(inst); got != startPrice+1 {
		t.Fatalf("price after first buy = %d, want %d", got, startPrice+1)
	}

	// The second buy of the same instrument pays the anchored price even
	// though the market moved.
	if _, err := e.Buy(actor, inst); err != nil {
		t.Fatalf("second buy: %v", err)
	}
	if got := e.PlayerCash(actor); got != 20-2*startPrice {
		t.Fatalf("cash = %d, want %d", got, 20-2*startPrice)
	}
	if got := e.Price(inst); got != startPrice+2 {
		t.Fatalf("price after second buy = %d, want %d", got, startPrice+2)
	}

	if _, err := e.Buy(actor, inst); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("third buy err = %v, want ErrLimitReached", err)
	}
}

func TestBuyThenSellLockedForTheTurn(t *testing.T) {
	e := newStartedEngine(t, 3, 21)
	driveToMain(t, e)

	actor := e.Pending().Actor
	setCash(e, actor, 20)
	inst := e.Instruments()[0]
	e.ledger.AddStock(actor, inst, 1)

	if _, err := e.Buy(actor, inst); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := e.Sell(actor, inst, true); !errors.Is(err, ErrActionLocked) {
		t.Fatalf("sell err = %v, want ErrActionLocked", err)
	}
}

func TestUndoBuyRestoresCashAndPrice(t *testing.T) {
	e := newStartedEngine(t, 3, 23)
	driveToMain(t, e)

	actor := e.Pending().Actor
	setCash(e, actor, 20)
	inst := e.Instruments()[1]
	cash := e.PlayerCash(actor)
	price := e.Price(inst)
	holdings := e.PlayerHoldings(actor)[inst]

	if _, err := e.Buy(actor, inst); err != nil {
		t.Fatalf("buy: %v", err)
	}
	events, err := e.Undo(actor)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !hasEvent(events, EventUndone) {
		t.Fatal("missing undo event")
	}

	if got := e.PlayerCash(actor); got != cash {
		t.Fatalf("cash = %d, want %d", got, cash)
	}
	if got := e.Price(inst); got != price {
		t.Fatalf("price = %d, want %d", got, price)
	}
	if got := e.PlayerHoldings(actor)[inst]; got != holdings {
		t.Fatalf("holdings = %d, want %d", got, holdings)
	}

	// With everything undone the direction lock clears: a sell is legal now.
	e.ledger.AddStock(actor, inst, 1)
	if _, err := e.Sell(actor, inst, true); err != nil {
		t.Fatalf("sell after undo: %v", err)
	}
}

func TestUndoWithEmptyHistory(t *testing.T) {
	e := newStartedEngine(t, 3, 23)
	driveToMain(t, e)
	if _, err := e.Undo(e.Pending().Actor); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("err = %v, want ErrNothingToUndo", err)
	}
}

func TestOpenSellAnchoredWithTopUp(t *testing.T) {
	e := newStartedEngine(t, 3, 25)
	driveToMain(t, e)

	actor := e.Pending().Actor
	clearHoldings(e)
	inst := e.Instruments()[0]
	e.ledger.AddStock(actor, inst, 2)
	setCash(e, actor, 0)
	startPrice := e.Price(inst)

	if _, err := e.Sell(actor, inst, true); err != nil {
		t.Fatalf("first sell: %v", err)
	}
	// The market dropped, but the anchored gain still applies.
	if _, err := e.Sell(actor, inst, true); err != nil {
		t.Fatalf("second sell: %v", err)
	}

	if got := e.PlayerCash(actor); got != 2*startPrice {
		t.Fatalf("cash = %d, want %d", got, 2*startPrice)
	}
	if got := e.Price(inst); got != startPrice-2 {
		t.Fatalf("price = %d, want %d", got, startPrice-2)
	}
}

func TestCloseSellQueuesAndUndoes(t *testing.T) {
	e := newStartedEngine(t, 3, 27)
	driveToMain(t, e)

	actor := e.Pending().Actor
	clearHoldings(e)
	inst := e.Instruments()[2]
	e.ledger.AddStock(actor, inst, 1)
	setCash(e, actor, 0)

	events, err := e.Sell(actor, inst, false)
	if err != nil {
		t.Fatalf("close sell: %v", err)
	}
	if !hasEvent(events, EventCloseSellQueued) {
		t.Fatal("missing queue event")
	}
	// Deferred: no cash yet, no price move, unit reserved.
	if got := e.PlayerCash(actor); got != 0 {
		t.Fatalf("cash = %d, want 0", got)
	}
	if got := e.Price(inst); got != 4 {
		t.Fatalf("price = %d, want 4", got)
	}
	if got := len(e.market.QueuedCloseSales()); got != 1 {
		t.Fatalf("queue = %d, want 1", got)
	}
	p, _ := e.ledger.Player(actor)
	if got := p.AvailableToSell(inst); got != 0 {
		t.Fatalf("available = %d, want 0", got)
	}

	if _, err := e.Undo(actor); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := len(e.market.QueuedCloseSales()); got != 0 {
		t.Fatalf("queue after undo = %d, want 0", got)
	}
	if got := p.AvailableToSell(inst); got != 1 {
		t.Fatalf("available after undo = %d, want 1", got)
	}
}

func TestSellLimitIndependentOfBuyLimit(t *testing.T) {
	e := newStartedEngine(t, 3, 29)
	driveToMain(t, e)

	actor := e.Pending().Actor
	clearHoldings(e)
	inst := e.Instruments()[0]
	e.ledger.AddStock(actor, inst, 4)

	for i := 0; i < 3; i++ {
		if _, err := e.Sell(actor, inst, false); err != nil {
			t.Fatalf("sell %d: %v", i+1, err)
		}
	}
	if _, err := e.Sell(actor, inst, false); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("fourth sell err = %v, want ErrLimitReached", err)
	}
}

func TestEndTurnAdvancesThroughCharacterOrder(t *testing.T) {
	e := newStartedEngine(t, 3, 31)
	driveToMain(t, e)

	seen := make(map[string]bool)
	prev := domain.CharacterNone
	for e.Round() == 1 {
		actor := e.Pending().Actor
		number := e.turn.character
		if prev != domain.CharacterNone && number <= prev {
			t.Fatalf("turn order not ascending: %d after %d", number, prev)
		}
		prev = number
		seen[actor] = true
		if _, err := e.EndTurn(actor); err != nil {
			t.Fatalf("end turn: %v", err)
		}
	}
	if len(seen) != 3 {
		t.Fatalf("players who acted = %d, want 3", len(seen))
	}
}
