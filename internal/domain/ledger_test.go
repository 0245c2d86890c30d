package domain

import (
	"errors"
	"testing"
)

func newTestLedger(t *testing.T) (*Ledger, *Market) {
	t.Helper()
	m := NewMarket(PriceBounds{Min: 0, Max: 8, Start: 4}, InstrumentsFor(3))
	l := NewLedger(m)
	m.Bind(l, nil)
	return l, m
}

func TestAddPlayerRejectsDuplicate(t *testing.T) {
	l, _ := newTestLedger(t)
	if _, err := l.AddPlayer("p1", "Alice", 5); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := l.AddPlayer("p1", "Alice again", 5); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestPlayersReturnsRegistrationOrder(t *testing.T) {
	l, _ := newTestLedger(t)
	for _, id := range []string{"c", "a", "b"} {
		l.AddPlayer(id, id, 5)
	}
	players := l.Players()
	want := []string{"c", "a", "b"}
	for i, p := range players {
		if p.ID != want[i] {
			t.Fatalf("players[%d] = %s, want %s", i, p.ID, want[i])
		}
	}
}

func TestRemoveMoneyClampsAtZero(t *testing.T) {
	l, _ := newTestLedger(t)
	l.AddPlayer("p1", "p1", 3)

	if got := l.RemoveMoney("p1", 10); got != 3 {
		t.Fatalf("removed = %d, want 3", got)
	}
	p, _ := l.Player("p1")
	if p.Cash != 0 {
		t.Fatalf("cash = %d, want 0", p.Cash)
	}
	if got := l.RemoveMoney("p1", 1); got != 0 {
		t.Fatalf("removed from empty = %d, want 0", got)
	}
}

func TestRemoveStockClampsAtZero(t *testing.T) {
	l, _ := newTestLedger(t)
	l.AddPlayer("p1", "p1", 5)
	l.AddStock("p1", InstrumentRed, 2)

	if got := l.RemoveStock("p1", InstrumentRed, 5); got != 2 {
		t.Fatalf("removed = %d, want 2", got)
	}
	p, _ := l.Player("p1")
	if p.Holdings[InstrumentRed] != 0 {
		t.Fatalf("holdings = %d, want 0", p.Holdings[InstrumentRed])
	}
}

func TestBuyOneChargesAndTicksMarket(t *testing.T) {
	l, m := newTestLedger(t)
	l.AddPlayer("p1", "p1", 5)

	if err := l.BuyOne("p1", InstrumentRed, 4); err != nil {
		t.Fatalf("buy: %v", err)
	}
	p, _ := l.Player("p1")
	if p.Cash != 1 || p.Holdings[InstrumentRed] != 1 {
		t.Fatalf("cash=%d holdings=%d, want 1 and 1", p.Cash, p.Holdings[InstrumentRed])
	}
	if m.Price(InstrumentRed) != 5 {
		t.Fatalf("price = %d, want 5", m.Price(InstrumentRed))
	}

	if err := l.BuyOne("p1", InstrumentRed, 5); !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v, want ErrInsufficientCash", err)
	}
}

func TestSellOneOpenPaysCurrentPriceAndTicks(t *testing.T) {
	l, m := newTestLedger(t)
	l.AddPlayer("p1", "p1", 0)
	l.AddStock("p1", InstrumentBlue, 1)

	gain, err := l.SellOneOpen("p1", InstrumentBlue)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if gain != 4 {
		t.Fatalf("gain = %d, want 4", gain)
	}
	p, _ := l.Player("p1")
	if p.Cash != 4 || p.Holdings[InstrumentBlue] != 0 {
		t.Fatalf("cash=%d holdings=%d, want 4 and 0", p.Cash, p.Holdings[InstrumentBlue])
	}
	if m.Price(InstrumentBlue) != 3 {
		t.Fatalf("price = %d, want 3", m.Price(InstrumentBlue))
	}

	if _, err := l.SellOneOpen("p1", InstrumentBlue); !errors.Is(err, ErrNoHoldings) {
		t.Fatalf("err = %v, want ErrNoHoldings", err)
	}
}

func TestQueueCloseSellReservesUnit(t *testing.T) {
	l, _ := newTestLedger(t)
	l.AddPlayer("p1", "p1", 0)
	l.AddStock("p1", InstrumentRed, 1)

	if err := l.QueueCloseSell("p1", InstrumentRed); err != nil {
		t.Fatalf("queue: %v", err)
	}
	p, _ := l.Player("p1")
	if got := p.AvailableToSell(InstrumentRed); got != 0 {
		t.Fatalf("available = %d, want 0", got)
	}
	// The reserved unit cannot be sold again either way.
	if _, err := l.SellOneOpen("p1", InstrumentRed); !errors.Is(err, ErrNoHoldings) {
		t.Fatalf("open sell err = %v, want ErrNoHoldings", err)
	}
	if err := l.QueueCloseSell("p1", InstrumentRed); !errors.Is(err, ErrNoHoldings) {
		t.Fatalf("second queue err = %v, want ErrNoHoldings", err)
	}

	if !l.CancelCloseSell("p1", InstrumentRed) {
		t.Fatal("cancel should succeed")
	}
	if got := p.AvailableToSell(InstrumentRed); got != 1 {
		t.Fatalf("available after cancel = %d, want 1", got)
	}
}

func TestCommitCloseSellsRemovesReservedUnits(t *testing.T) {
	l, _ := newTestLedger(t)
	l.AddPlayer("p1", "p1", 0)
	l.AddStock("p1", InstrumentRed, 3)
	l.QueueCloseSell("p1", InstrumentRed)
	l.QueueCloseSell("p1", InstrumentRed)

	l.CommitCloseSells()

	p, _ := l.Player("p1")
	if p.Holdings[InstrumentRed] != 1 {
		t.Fatalf("holdings = %d, want 1", p.Holdings[InstrumentRed])
	}
	if p.PendingClose[InstrumentRed] != 0 {
		t.Fatalf("pending = %d, want 0", p.PendingClose[InstrumentRed])
	}
}

func TestSettleRemainingHoldingsConvertsAtCurrentPrices(t *testing.T) {
	l, m := newTestLedger(t)
	l.AddPlayer("p1", "p1", 2)
	l.AddStock("p1", InstrumentRed, 2)
	l.AddStock("p1", InstrumentGreen, 1)
	m.AdjustPrice(InstrumentGreen, 2) // green at 6

	l.SettleRemainingHoldings()

	p, _ := l.Player("p1")
	if p.Cash != 2+2*4+6 {
		t.Fatalf("cash = %d, want %d", p.Cash, 2+2*4+6)
	}
	for inst := Instrument(0); inst < InstrumentCount; inst++ {
		if p.Holdings[inst] != 0 {
			t.Fatalf("holdings[%s] = %d, want 0", inst, p.Holdings[inst])
		}
	}
}

func TestInstrumentsForPlayerCount(t *testing.T) {
	if got := len(InstrumentsFor(4)); got != 3 {
		t.Fatalf("instruments for 4 players = %d, want 3", got)
	}
	if got := len(InstrumentsFor(5)); got != 4 {
		t.Fatalf("instruments for 5 players = %d, want 4", got)
	}
}
