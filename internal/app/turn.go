package app

import "stockraid/internal/domain"

type turnAction int

const (
	actionNone turnAction = iota
	actionBuy
	actionSell
)

type entryKind int

const (
	entryBuy entryKind = iota
	entrySell
	entryBarrier
)

// historyEntry records one undoable trade or a non-undoable ability barrier.
type historyEntry struct {
	kind       entryKind
	instrument domain.Instrument
	open       bool
	// unitPrice is the anchored net amount paid or credited.
	unitPrice int
	// basePrice is the market price at queue time, for close sells.
	basePrice int
	undoable  bool
}

// turnState is everything scoped to exactly one player-turn. It is created
// at turn start and discarded at turn end; nothing in it survives.
type turnState struct {
	playerID  string
	character domain.CharacterNumber

	action    turnAction
	buyLimit  int
	sellLimit int
	buyUsed   int
	sellUsed  int

	// Ability-granted deltas applied on top of anchors for this turn only.
	buyDelta  int
	sellDelta int

	buyAnchor    [domain.InstrumentCount]int
	buyAnchored  [domain.InstrumentCount]bool
	sellAnchor   [domain.InstrumentCount]int
	sellAnchored [domain.InstrumentCount]bool

	abilityAvailable bool
	history          []historyEntry

	flow *abilityFlow
	// cachedTrio keeps the Manipulator's draw across a cancel so a retry in
	// the same turn sees the same three cards.
	cachedTrio []domain.ManipulationCard
}

func newTurnState(pid string, number domain.CharacterNumber, buyLimit, sellLimit int) *turnState {
	return &turnState{
		playerID:         pid,
		character:        number,
		buyLimit:         buyLimit,
		sellLimit:        sellLimit,
		abilityAvailable: true,
	}
}

func (t *turnState) clearAnchors() {
	t.buyAnchor = [domain.InstrumentCount]int{}
	t.buyAnchored = [domain.InstrumentCount]bool{}
	t.sellAnchor = [domain.InstrumentCount]int{}
	t.sellAnchored = [domain.InstrumentCount]bool{}
}

func (t *turnState) pushBarrier() {
	t.history = append(t.history, historyEntry{kind: entryBarrier})
	t.abilityAvailable = false
}

// Buy purchases one unit at the turn's anchored price for the instrument.
// The first buy of an instrument locks its price; later buys of the same
// instrument this turn pay the anchor (plus any ability delta) even though
// the market keeps ticking between trades.
func (e *Engine) Buy(pid string, inst domain.Instrument) ([]Event, error) {
	if err := e.requirePending(ReqTurnAction, pid); err != nil {
		return nil, err
	}
	t := e.turn
	if !inst.Valid() || !e.market.InPlay(inst) {
		return nil, ErrInvalidInstrument
	}
	if t.action == actionSell {
		return nil, ErrActionLocked
	}
	if t.buyUsed >= t.buyLimit {
		return nil, ErrLimitReached
	}

	anchor := e.market.Price(inst)
	if t.buyAnchored[inst] {
		anchor = t.buyAnchor[inst]
	}
	cost := anchor + t.buyDelta
	if cost < 0 {
		cost = 0
	}
	if e.PlayerCash(pid) < cost {
		return nil, ErrCannotAfford
	}

	if !t.buyAnchored[inst] {
		t.buyAnchored[inst] = true
		t.buyAnchor[inst] = anchor
	}
	if err := e.ledger.BuyOne(pid, inst, cost); err != nil {
		return nil, err
	}
	t.action = actionBuy
	t.buyUsed++
	t.history = append(t.history, historyEntry{
		kind:       entryBuy,
		instrument: inst,
		unitPrice:  cost,
		undoable:   true,
	})

	e.emit(EventBought, TradePayload{PlayerID: pid, Instrument: int(inst), Amount: cost})
	if p, ok := e.ledger.Player(pid); ok {
		e.emitPlayerState(p)
	}
	return e.take(), nil
}

// Sell disposes one unit. An open sell settles immediately at the anchored
// price; a close sell is deferred to end of round, keeping both the anchored
// payout and the price at queue time.
func (e *Engine) Sell(pid string, inst domain.Instrument, open bool) ([]Event, error) {
	if err := e.requirePending(ReqTurnAction, pid); err != nil {
		return nil, err
	}
	t := e.turn
	if !inst.Valid() || !e.market.InPlay(inst) {
		return nil, ErrInvalidInstrument
	}
	if t.action == actionBuy {
		return nil, ErrActionLocked
	}
	if t.sellUsed >= t.sellLimit {
		return nil, ErrLimitReached
	}
	p, ok := e.ledger.Player(pid)
	if !ok || p.AvailableToSell(inst) <= 0 {
		return nil, domain.ErrNoHoldings
	}

	anchor := e.market.Price(inst)
	if t.sellAnchored[inst] {
		anchor = t.sellAnchor[inst]
	}
	gain := anchor + t.sellDelta
	if gain < 0 {
		gain = 0
	}
	if !t.sellAnchored[inst] {
		t.sellAnchored[inst] = true
		t.sellAnchor[inst] = anchor
	}

	if open {
		credited, err := e.ledger.SellOneOpen(pid, inst)
		if err != nil {
			return nil, err
		}
		// Top up to the anchored gain; the ledger credited the live price.
		if gain > credited {
			e.ledger.AddMoney(pid, gain-credited)
		}
		t.action = actionSell
		t.sellUsed++
		t.history = append(t.history, historyEntry{
			kind:       entrySell,
			instrument: inst,
			open:       true,
			unitPrice:  gain,
			undoable:   true,
		})
		e.emit(EventSold, TradePayload{PlayerID: pid, Instrument: int(inst), Amount: gain, Open: true})
	} else {
		base := e.market.Price(inst)
		if err := e.ledger.QueueCloseSell(pid, inst); err != nil {
			return nil, err
		}
		e.market.QueueCloseSale(pid, inst, gain, base)
		t.action = actionSell
		t.sellUsed++
		t.history = append(t.history, historyEntry{
			kind:       entrySell,
			instrument: inst,
			open:       false,
			unitPrice:  gain,
			basePrice:  base,
			undoable:   true,
		})
		e.emit(EventCloseSellQueued, TradePayload{PlayerID: pid, Instrument: int(inst), Amount: gain})
	}

	e.emitPlayerState(p)
	return e.take(), nil
}

// Undo pops exactly one trade off the turn's history stack and reverses it
// precisely, including boundary snapshot restores. A barrier on top blocks
// undo entirely.
func (e *Engine) Undo(pid string) ([]Event, error) {
	if err := e.requirePending(ReqTurnAction, pid); err != nil {
		return nil, err
	}
	t := e.turn
	if len(t.history) == 0 {
		return nil, ErrNothingToUndo
	}
	top := t.history[len(t.history)-1]
	if !top.undoable {
		return nil, ErrUndoBlocked
	}
	t.history = t.history[:len(t.history)-1]

	var action string
	switch top.kind {
	case entryBuy:
		action = "buy"
		e.market.RevertBuy(top.instrument)
		e.ledger.RemoveStock(pid, top.instrument, 1)
		e.ledger.AddMoney(pid, top.unitPrice)
		t.buyUsed--
	case entrySell:
		if top.open {
			action = "sell"
			e.market.RevertOpenSell(top.instrument)
			e.ledger.AddStock(pid, top.instrument, 1)
			e.ledger.RemoveMoney(pid, top.unitPrice)
		} else {
			action = "close_sell"
			e.ledger.CancelCloseSell(pid, top.instrument)
			e.market.RemoveQueuedCloseSale(pid, top.instrument, top.unitPrice)
		}
		t.sellUsed--
	}

	if t.buyUsed == 0 && t.sellUsed == 0 {
		t.action = actionNone
		t.clearAnchors()
	}

	e.emit(EventUndone, UndonePayload{PlayerID: pid, Action: action, Instrument: int(top.instrument)})
	if p, ok := e.ledger.Player(pid); ok {
		e.emitPlayerState(p)
	}
	return e.take(), nil
}

// EndTurn closes the current turn and advances the main phase. Any cached
// uncommitted ability draw goes back to the deck.
func (e *Engine) EndTurn(pid string) ([]Event, error) {
	if err := e.requirePending(ReqTurnAction, pid); err != nil {
		return nil, err
	}
	t := e.turn
	for _, card := range t.cachedTrio {
		e.supply.ReturnManipulationToDeck(card)
	}
	t.cachedTrio = nil

	e.emit(EventTurnEnded, TurnPayload{PlayerID: pid, Character: int(t.character)})
	e.turn = nil
	e.pending = nil
	e.turnIdx++
	e.nextTurn()
	return e.take(), nil
}
