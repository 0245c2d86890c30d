package domain

// PriceBounds configures the shared price corridor for every instrument.
type PriceBounds struct {
	Min   int
	Max   int
	Start int
}

// Accounts is the holdings/cash surface the market needs when a boundary
// event wipes or pays out positions. The Ledger implements it.
type Accounts interface {
	// Holders returns playerID -> quantity for every player holding the
	// instrument with a positive quantity.
	Holders(inst Instrument) map[string]int
	AddMoney(playerID string, amount int)
	// RemoveMoney clamps at zero and returns the amount actually removed.
	RemoveMoney(playerID string, amount int) int
	AddStock(playerID string, inst Instrument, qty int)
	// RemoveStock clamps at zero and returns the quantity actually removed.
	RemoveStock(playerID string, inst Instrument, qty int) int
}

// MarketObserver receives price and boundary notifications synchronously as
// they happen. The engine translates them into outbound events.
type MarketObserver interface {
	OnPriceChanged(inst Instrument, oldPrice, newPrice int)
	OnBankruptcy(inst Instrument, wiped map[string]int)
	OnCeiling(inst Instrument, payouts map[string]int, wiped map[string]int)
}

// CloseSale is a deferred sell queued during a turn and settled at end of
// round. Anchor is the payout locked when the sell was declared; BasePrice is
// the market price at the same moment.
type CloseSale struct {
	PlayerID   string
	Instrument Instrument
	Anchor     int
	BasePrice  int
}

// CloseSaleResult reports one settled close sale.
type CloseSaleResult struct {
	PlayerID   string
	Instrument Instrument
	Payout     int
}

// boundaryRecord snapshots exactly what a bankruptcy or ceiling-out touched
// so the triggering trade can be reverted precisely.
type boundaryRecord struct {
	prePrice int
	wiped    map[string]int
	payouts  map[string]int
}

// Market holds per-instrument prices and resolves the two boundary events:
// bankruptcy at the floor and ceiling-out at the cap. All mutation goes
// through the engine; the market never reaches back into it except via the
// observer.
type Market struct {
	bounds    PriceBounds
	available []Instrument
	prices    [InstrumentCount]int
	accounts  Accounts
	observer  MarketObserver

	closeQueue []CloseSale

	bankruptcies map[Instrument]*boundaryRecord
	ceilings     map[Instrument]*boundaryRecord
}

// NewMarket creates a market over the given instrument set with every price
// at the starting value. Bind must be called before any trade.
func NewMarket(bounds PriceBounds, available []Instrument) *Market {
	m := &Market{
		bounds:       bounds,
		available:    append([]Instrument(nil), available...),
		bankruptcies: make(map[Instrument]*boundaryRecord),
		ceilings:     make(map[Instrument]*boundaryRecord),
	}
	for _, inst := range m.available {
		m.prices[inst] = bounds.Start
	}
	return m
}

// Bind attaches the accounts surface and observer.
func (m *Market) Bind(accounts Accounts, observer MarketObserver) {
	m.accounts = accounts
	m.observer = observer
}

// Available returns the instruments in play.
func (m *Market) Available() []Instrument {
	return append([]Instrument(nil), m.available...)
}

// InPlay reports whether the instrument belongs to this game.
func (m *Market) InPlay(inst Instrument) bool {
	for _, a := range m.available {
		if a == inst {
			return true
		}
	}
	return false
}

// Price returns the current price of the instrument.
func (m *Market) Price(inst Instrument) int {
	return m.prices[inst]
}

// StartPrice returns the reset price used by boundary events.
func (m *Market) StartPrice() int {
	return m.bounds.Start
}

func (m *Market) setPrice(inst Instrument, price int) {
	if price < m.bounds.Min {
		price = m.bounds.Min
	}
	if price > m.bounds.Max {
		price = m.bounds.Max
	}
	old := m.prices[inst]
	if old == price {
		return
	}
	m.prices[inst] = price
	if m.observer != nil {
		m.observer.OnPriceChanged(inst, old, price)
	}
}

// BuyTick moves the price up one step for a completed buy and records a
// revertable snapshot if the buy pushed the instrument into a ceiling-out.
func (m *Market) BuyTick(inst Instrument) {
	m.setPrice(inst, m.prices[inst]+1)
	m.checkCeilingRecorded(inst)
}

// OpenSellTick moves the price down one step for a completed open sell and
// records a revertable snapshot if the sell triggered a bankruptcy.
func (m *Market) OpenSellTick(inst Instrument) {
	m.setPrice(inst, m.prices[inst]-1)
	m.checkBankruptcyRecorded(inst)
}

// AdjustPrice applies a signed delta with clamping and then resolves any
// boundary event without recording a snapshot. Used by manipulation reveal
// and other end-of-round effects, which are never undone.
func (m *Market) AdjustPrice(inst Instrument, delta int) {
	if delta == 0 {
		return
	}
	m.setPrice(inst, m.prices[inst]+delta)
	m.checkBoundaries(inst)
}

// CheckAllBoundaries re-resolves boundary conditions for every instrument,
// bankruptcy before ceiling-out.
func (m *Market) CheckAllBoundaries() {
	for _, inst := range m.available {
		m.checkBoundaries(inst)
	}
}

func (m *Market) checkBoundaries(inst Instrument) {
	if m.prices[inst] <= m.bounds.Min {
		m.resolveBankruptcy(inst)
	}
	if m.prices[inst] >= m.bounds.Max {
		m.resolveCeiling(inst)
	}
}

func (m *Market) resolveBankruptcy(inst Instrument) map[string]int {
	wiped := m.accounts.Holders(inst)
	for pid, qty := range wiped {
		m.accounts.RemoveStock(pid, inst, qty)
	}
	m.setPrice(inst, m.bounds.Start)
	if m.observer != nil {
		m.observer.OnBankruptcy(inst, wiped)
	}
	return wiped
}

func (m *Market) resolveCeiling(inst Instrument) (map[string]int, map[string]int) {
	wiped := m.accounts.Holders(inst)
	payouts := make(map[string]int, len(wiped))
	for pid, qty := range wiped {
		amount := qty * m.bounds.Start
		m.accounts.AddMoney(pid, amount)
		payouts[pid] = amount
		m.accounts.RemoveStock(pid, inst, qty)
	}
	m.setPrice(inst, m.bounds.Start)
	if m.observer != nil {
		m.observer.OnCeiling(inst, payouts, wiped)
	}
	return payouts, wiped
}

func (m *Market) checkBankruptcyRecorded(inst Instrument) {
	if m.prices[inst] > m.bounds.Min {
		return
	}
	pre := m.prices[inst] + 1 // price before the sell tick that sank it
	wiped := m.resolveBankruptcy(inst)
	m.bankruptcies[inst] = &boundaryRecord{prePrice: pre, wiped: wiped}
}

func (m *Market) checkCeilingRecorded(inst Instrument) {
	if m.prices[inst] < m.bounds.Max {
		return
	}
	pre := m.prices[inst] - 1 // price before the buy tick that capped it
	payouts, wiped := m.resolveCeiling(inst)
	m.ceilings[inst] = &boundaryRecord{prePrice: pre, wiped: wiped, payouts: payouts}
}

// RevertBuy undoes the market-side effects of the last buy of the
// instrument: either a plain down-tick, or a full ceiling snapshot restore
// (claw back payouts, restore wiped holdings, restore the pre-buy price).
// The ledger-side unit and cash are reverted by the caller afterwards.
func (m *Market) RevertBuy(inst Instrument) {
	if rec, ok := m.ceilings[inst]; ok {
		delete(m.ceilings, inst)
		for pid, amount := range rec.payouts {
			m.accounts.RemoveMoney(pid, amount)
		}
		for pid, qty := range rec.wiped {
			m.accounts.AddStock(pid, inst, qty)
		}
		m.setPrice(inst, rec.prePrice)
		return
	}
	m.setPrice(inst, m.prices[inst]-1)
}

// RevertOpenSell undoes the market-side effects of the last open sell of the
// instrument: either a plain up-tick, or a full bankruptcy snapshot restore.
func (m *Market) RevertOpenSell(inst Instrument) {
	if rec, ok := m.bankruptcies[inst]; ok {
		delete(m.bankruptcies, inst)
		for pid, qty := range rec.wiped {
			m.accounts.AddStock(pid, inst, qty)
		}
		m.setPrice(inst, rec.prePrice)
		return
	}
	m.setPrice(inst, m.prices[inst]+1)
}

// QueueCloseSale records a deferred sell for end-of-round settlement.
func (m *Market) QueueCloseSale(playerID string, inst Instrument, anchor, basePrice int) {
	m.closeQueue = append(m.closeQueue, CloseSale{
		PlayerID:   playerID,
		Instrument: inst,
		Anchor:     anchor,
		BasePrice:  basePrice,
	})
}

// RemoveQueuedCloseSale drops the most recently queued close sale matching
// player, instrument and anchor. Used by undo.
func (m *Market) RemoveQueuedCloseSale(playerID string, inst Instrument, anchor int) bool {
	for i := len(m.closeQueue) - 1; i >= 0; i-- {
		cs := m.closeQueue[i]
		if cs.PlayerID == playerID && cs.Instrument == inst && cs.Anchor == anchor {
			m.closeQueue = append(m.closeQueue[:i], m.closeQueue[i+1:]...)
			return true
		}
	}
	return false
}

// QueuedCloseSales returns the pending close-sale queue in order.
func (m *Market) QueuedCloseSales() []CloseSale {
	return append([]CloseSale(nil), m.closeQueue...)
}

// ProcessCloseSales settles every queued close sale in queue order. Each sale
// pays max(0, anchor + (finalPrice - basePrice)) where finalPrice is the
// price snapshot taken before any settlement tick, then moves the price down
// one step and re-resolves boundaries. The queue is drained.
func (m *Market) ProcessCloseSales() []CloseSaleResult {
	var finals [InstrumentCount]int
	for _, inst := range m.available {
		finals[inst] = m.prices[inst]
	}

	results := make([]CloseSaleResult, 0, len(m.closeQueue))
	for _, cs := range m.closeQueue {
		payout := cs.Anchor + (finals[cs.Instrument] - cs.BasePrice)
		if payout < 0 {
			payout = 0
		}
		m.accounts.AddMoney(cs.PlayerID, payout)
		m.setPrice(cs.Instrument, m.prices[cs.Instrument]-1)
		m.checkBoundaries(cs.Instrument)
		results = append(results, CloseSaleResult{
			PlayerID:   cs.PlayerID,
			Instrument: cs.Instrument,
			Payout:     payout,
		})
	}
	m.closeQueue = nil
	return results
}

// ClearTurnRecords drops any boundary snapshots once their triggering trades
// can no longer be undone.
func (m *Market) ClearTurnRecords() {
	m.bankruptcies = make(map[Instrument]*boundaryRecord)
	m.ceilings = make(map[Instrument]*boundaryRecord)
}
