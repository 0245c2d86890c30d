package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlayer is returned for operations on an id the ledger has
	// never seen.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrNoHoldings is returned when a sell has nothing left to commit.
	ErrNoHoldings = errors.New("no holdings available to sell")
	// ErrInsufficientCash is returned when a buy cannot be paid for.
	ErrInsufficientCash = errors.New("insufficient cash")
)

// Player is one seat's account: cash, holdings, deferred sells and the
// round-local character assignment.
type Player struct {
	ID   string
	Name string
	Cash int

	Holdings     [InstrumentCount]int
	PendingClose [InstrumentCount]int

	Character CharacterNumber

	// BidTotal accumulates signed bid amounts across the whole game and is
	// used only to break ties when the winner is decided.
	BidTotal int
}

// AvailableToSell is owned minus already-deferred quantity.
func (p *Player) AvailableToSell(inst Instrument) int {
	return p.Holdings[inst] - p.PendingClose[inst]
}

// Ledger owns every player account. It is the single mutation point for cash
// and holdings; buys and open sells are the only operations that also tick
// the market, keeping price and ownership changes atomic for callers.
type Ledger struct {
	players map[string]*Player
	order   []string
	market  *Market
}

// NewLedger creates an empty ledger bound to the market.
func NewLedger(market *Market) *Ledger {
	return &Ledger{
		players: make(map[string]*Player),
		market:  market,
	}
}

// AddPlayer registers a seat with its starting cash.
func (l *Ledger) AddPlayer(id, name string, startingCash int) (*Player, error) {
	if _, exists := l.players[id]; exists {
		return nil, fmt.Errorf("player %s already registered", id)
	}
	p := &Player{ID: id, Name: name, Cash: startingCash}
	l.players[id] = p
	l.order = append(l.order, id)
	return p, nil
}

// Player looks up an account by id.
func (l *Ledger) Player(id string) (*Player, bool) {
	p, ok := l.players[id]
	return p, ok
}

// Players returns all accounts in registration order.
func (l *Ledger) Players() []*Player {
	out := make([]*Player, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.players[id])
	}
	return out
}

// AddMoney credits cash.
func (l *Ledger) AddMoney(id string, amount int) {
	if p, ok := l.players[id]; ok && amount > 0 {
		p.Cash += amount
	}
}

// RemoveMoney debits cash, clamped at zero, returning the amount removed.
func (l *Ledger) RemoveMoney(id string, amount int) int {
	p, ok := l.players[id]
	if !ok || amount <= 0 {
		return 0
	}
	if amount > p.Cash {
		amount = p.Cash
	}
	p.Cash -= amount
	return amount
}

// AddStock credits holdings.
func (l *Ledger) AddStock(id string, inst Instrument, qty int) {
	if p, ok := l.players[id]; ok && qty > 0 {
		p.Holdings[inst] += qty
	}
}

// RemoveStock debits holdings, clamped at zero, returning the quantity
// removed.
func (l *Ledger) RemoveStock(id string, inst Instrument, qty int) int {
	p, ok := l.players[id]
	if !ok || qty <= 0 {
		return 0
	}
	if qty > p.Holdings[inst] {
		qty = p.Holdings[inst]
	}
	p.Holdings[inst] -= qty
	return qty
}

// Holders implements Accounts for the market.
func (l *Ledger) Holders(inst Instrument) map[string]int {
	out := make(map[string]int)
	for id, p := range l.players {
		if p.Holdings[inst] > 0 {
			out[id] = p.Holdings[inst]
		}
	}
	return out
}

// BuyOne charges the effective price, grants one unit and ticks the market
// up. The caller has already validated affordability against the anchored
// price; cost is that anchored net price.
func (l *Ledger) BuyOne(id string, inst Instrument, cost int) error {
	p, ok := l.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.Cash < cost {
		return ErrInsufficientCash
	}
	p.Cash -= cost
	p.Holdings[inst]++
	l.market.BuyTick(inst)
	return nil
}

// SellOneOpen removes one unit, pays the current market price immediately
// and ticks the market down. Returns the amount credited.
func (l *Ledger) SellOneOpen(id string, inst Instrument) (int, error) {
	p, ok := l.players[id]
	if !ok {
		return 0, ErrUnknownPlayer
	}
	if p.AvailableToSell(inst) <= 0 {
		return 0, ErrNoHoldings
	}
	gain := l.market.Price(inst)
	p.Holdings[inst]--
	p.Cash += gain
	l.market.OpenSellTick(inst)
	return gain, nil
}

// QueueCloseSell defers one unit for end-of-round settlement. The unit stays
// in the holding but is no longer available to sell again.
func (l *Ledger) QueueCloseSell(id string, inst Instrument) error {
	p, ok := l.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.AvailableToSell(inst) <= 0 {
		return ErrNoHoldings
	}
	p.PendingClose[inst]++
	return nil
}

// CancelCloseSell releases one deferred unit. Used by undo.
func (l *Ledger) CancelCloseSell(id string, inst Instrument) bool {
	p, ok := l.players[id]
	if !ok || p.PendingClose[inst] <= 0 {
		return false
	}
	p.PendingClose[inst]--
	return true
}

// CommitCloseSells removes every deferred unit from holdings. The market
// pays the queued amounts separately during end-of-round settlement.
func (l *Ledger) CommitCloseSells() {
	for _, id := range l.order {
		p := l.players[id]
		for inst := Instrument(0); inst < InstrumentCount; inst++ {
			if p.PendingClose[inst] > 0 {
				l.RemoveStock(id, inst, p.PendingClose[inst])
				p.PendingClose[inst] = 0
			}
		}
	}
}

// SettleRemainingHoldings converts every remaining unit to cash at current
// prices. Fired exactly once, after the final round, so the winner is
// decided on cash alone.
func (l *Ledger) SettleRemainingHoldings() {
	for _, id := range l.order {
		p := l.players[id]
		for _, inst := range l.market.Available() {
			if p.Holdings[inst] > 0 {
				p.Cash += p.Holdings[inst] * l.market.Price(inst)
				p.Holdings[inst] = 0
			}
		}
	}
}

var _ Accounts = (*Ledger)(nil)
