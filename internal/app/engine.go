package app

import (
	"fmt"
	"math/rand"
	"sort"

	"stockraid/internal/config"
	"stockraid/internal/domain"
)

// RequestKind identifies the input the engine is suspended on.
type RequestKind int

const (
	ReqNone RequestKind = iota
	// ReqBid awaits SubmitBid from the actor.
	ReqBid
	// ReqCharacterPick awaits ConfirmCharacter.
	ReqCharacterPick
	// ReqTurnAction awaits Buy/Sell/UseAbility/Undo/EndTurn.
	ReqTurnAction
	// ReqManipChoice awaits ChooseManipulation or CancelAbility.
	ReqManipChoice
	// ReqInstrument awaits ChooseInstrument or CancelAbility.
	ReqInstrument
	// ReqCharacterTarget awaits ChooseCharacterTarget or CancelAbility.
	ReqCharacterTarget
	// ReqConfirmTarget awaits ConfirmTarget or CancelAbility.
	ReqConfirmTarget
	// ReqGamble awaits ConfirmGamble (count, 0 to decline) or CancelAbility.
	ReqGamble
)

// PendingRequest is the single suspension point of the engine: only Actor
// may answer, and only with the request kind's resume entry point.
type PendingRequest struct {
	Kind       RequestKind
	Actor      string
	Candidates []int
}

type pendingManipulation struct {
	playerID   string
	card       domain.ManipulationCard
	instrument domain.Instrument
}

type pendingTax struct {
	collectorID string
	instrument  domain.Instrument
}

type pendingTheft struct {
	thiefID  string
	victimID string
	amount   int
}

// Engine is the authoritative game session: it owns the market, ledger and
// card supply, drives the round through its phases and is the sole mutator
// of all shared state. Every public method is a resume entry point returning
// the outbound events the call produced.
type Engine struct {
	cfg *config.GameConfig
	rng *rand.Rand

	// seats is ordered by registration and fixes deterministic tie-breaks.
	seats []seat

	market *domain.Market
	ledger *domain.Ledger
	supply *domain.Supply

	started bool
	over    bool
	round   int
	phase   PhaseName

	pending *PendingRequest
	events  []Event

	// round-local state
	faceUp         []domain.CharacterNumber
	faceDown       []domain.CharacterNumber
	availableChars []domain.CharacterNumber
	assignments    map[domain.CharacterNumber]string
	bidOrder       []string
	bidIdx         int
	slotTakenBy    []string
	roundBids      map[string]int
	selectionOrder []string
	selectionIdx   int
	blocked        map[domain.CharacterNumber]bool
	stolen         map[domain.CharacterNumber]bool
	manipulated    [domain.InstrumentCount]bool
	protected      [domain.InstrumentCount]bool
	pendingManips  []pendingManipulation
	pendingTaxes   []pendingTax
	turnQueue      []domain.CharacterNumber
	turnIdx        int

	// pendingThefts survives round boundaries: a theft resolves at the
	// victim's next turn start, whichever round that falls in.
	pendingThefts []pendingTheft

	turn *turnState
}

// NewEngine constructs an engine with the given rule set. rng may be nil for
// a default source; inject a seeded source in tests.
func NewEngine(cfg *config.GameConfig, rng *rand.Rand) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Engine{
		cfg:   cfg,
		rng:   rng,
		phase: PhaseEnded,
	}
}

// AddPlayer registers a seat before the game starts.
func (e *Engine) AddPlayer(id, name string) error {
	if e.started {
		return fmt.Errorf("cannot add %s: game already started", id)
	}
	if e.seatCount() >= e.cfg.MaxPlayers {
		return ErrPlayerCount
	}
	e.seats = append(e.seats, seat{id: id, name: name})
	return nil
}

type seat struct {
	id   string
	name string
}

// Start deals the opening position and drives the game to its first
// suspension point.
func (e *Engine) Start() ([]Event, error) {
	if e.started {
		return nil, fmt.Errorf("game already started")
	}
	n := e.seatCount()
	if n < e.cfg.MinPlayers || n > e.cfg.MaxPlayers {
		return nil, ErrPlayerCount
	}

	instruments := domain.InstrumentsFor(n)
	e.market = domain.NewMarket(domain.PriceBounds{
		Min:   e.cfg.MinPrice,
		Max:   e.cfg.MaxPrice,
		Start: e.cfg.StartPrice,
	}, instruments)
	e.ledger = domain.NewLedger(e.market)
	e.market.Bind(e.ledger, e)
	e.supply = domain.NewSupply(e.rng, instruments, e.cfg.JackpotIncrement)

	summaries := make([]PlayerSummary, 0, n)
	for _, s := range e.seats {
		p, err := e.ledger.AddPlayer(s.id, s.name, e.cfg.StartingCash)
		if err != nil {
			return nil, err
		}
		for i := 0; i < e.cfg.InitialHoldings; i++ {
			e.ledger.AddStock(s.id, e.supply.DrawRandomInstrument(), 1)
		}
		summaries = append(summaries, PlayerSummary{ID: p.ID, Name: p.Name, Cash: p.Cash})
	}

	e.started = true
	e.round = 1
	e.emit(EventGameStarted, GameStartedPayload{
		Players:     summaries,
		Instruments: instrumentsToInts(instruments),
		StartPrice:  e.cfg.StartPrice,
		MaxRounds:   e.cfg.MaxRounds,
	})
	for _, p := range e.ledger.Players() {
		e.emitPlayerState(p)
	}
	e.startRound()
	return e.take(), nil
}

func (e *Engine) seatCount() int {
	return len(e.seats)
}

// Pending returns a copy of the current suspension point, or nil when the
// engine is not waiting for input.
func (e *Engine) Pending() *PendingRequest {
	if e.pending == nil {
		return nil
	}
	cp := *e.pending
	cp.Candidates = append([]int(nil), e.pending.Candidates...)
	return &cp
}

// Phase reports the current phase.
func (e *Engine) Phase() PhaseName {
	return e.phase
}

// Round reports the current round counter.
func (e *Engine) Round() int {
	return e.round
}

// Started reports whether Start has run.
func (e *Engine) Started() bool {
	return e.started
}

// Over reports whether the game has finished.
func (e *Engine) Over() bool {
	return e.over
}

// PlayerCash returns a player's current cash.
func (e *Engine) PlayerCash(id string) int {
	if p, ok := e.ledger.Player(id); ok {
		return p.Cash
	}
	return 0
}

// Price returns the current price of an instrument.
func (e *Engine) Price(inst domain.Instrument) int {
	return e.market.Price(inst)
}

// Instruments returns the instruments in play.
func (e *Engine) Instruments() []domain.Instrument {
	return e.market.Available()
}

// BidSlotAmounts returns the configured bid amount per slot index.
func (e *Engine) BidSlotAmounts() []int {
	out := make([]int, len(e.cfg.BidSlots))
	for i, slot := range e.cfg.BidSlots {
		out[i] = slot.Amount
	}
	return out
}

func (e *Engine) take() []Event {
	evs := e.events
	e.events = nil
	return evs
}

func (e *Engine) setPending(kind RequestKind, actor string, candidates []int) {
	e.pending = &PendingRequest{Kind: kind, Actor: actor, Candidates: candidates}
}

// requirePending validates that pid is answering the active suspension point
// with the right request kind.
func (e *Engine) requirePending(kind RequestKind, pid string) error {
	if !e.started {
		return ErrGameNotStarted
	}
	if e.over {
		return ErrGameOver
	}
	if e.pending == nil || e.pending.Actor != pid {
		return ErrNotYourTurn
	}
	if e.pending.Kind != kind {
		return ErrWrongRequest
	}
	return nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// MarketObserver implementation: boundary and price notifications become
// outbound events as they happen.

func (e *Engine) OnPriceChanged(inst domain.Instrument, oldPrice, newPrice int) {
	e.emit(EventPriceChanged, PriceChangedPayload{
		Instrument: int(inst),
		Old:        oldPrice,
		New:        newPrice,
	})
}

func (e *Engine) OnBankruptcy(inst domain.Instrument, wiped map[string]int) {
	e.emit(EventBankruptcy, BoundaryPayload{
		Instrument: int(inst),
		Wiped:      wiped,
		ResetPrice: e.market.StartPrice(),
	})
	for pid := range wiped {
		if p, ok := e.ledger.Player(pid); ok {
			e.emitPlayerState(p)
		}
	}
}

func (e *Engine) OnCeiling(inst domain.Instrument, payouts, wiped map[string]int) {
	e.emit(EventCeiling, BoundaryPayload{
		Instrument: int(inst),
		Wiped:      wiped,
		Payouts:    payouts,
		ResetPrice: e.market.StartPrice(),
	})
	for pid := range wiped {
		if p, ok := e.ledger.Player(pid); ok {
			e.emitPlayerState(p)
		}
	}
}

var _ domain.MarketObserver = (*Engine)(nil)

// startRound resets round-local state and walks the phase sequence up to the
// first suspension point of the round.
func (e *Engine) startRound() {
	e.assignments = make(map[domain.CharacterNumber]string)
	e.blocked = make(map[domain.CharacterNumber]bool)
	e.stolen = make(map[domain.CharacterNumber]bool)
	e.manipulated = [domain.InstrumentCount]bool{}
	e.protected = [domain.InstrumentCount]bool{}
	e.pendingManips = nil
	e.pendingTaxes = nil
	e.turnQueue = nil
	e.turnIdx = 0
	e.roundBids = make(map[string]int)
	for _, p := range e.ledger.Players() {
		p.Character = domain.CharacterNone
	}

	if e.round >= 2 {
		e.emit(EventJackpotGrown, JackpotPayload{Amount: e.supply.IncreaseJackpot()})
	}

	e.runDiscard()
	if e.round > 1 {
		e.startBidding()
		return
	}

	// Round one skips bidding: selection order is a random permutation.
	order := make([]string, 0, e.seatCount())
	for _, s := range e.seats {
		order = append(order, s.id)
	}
	e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	e.startSelection(order)
}

// runDiscard removes characters from play for the round: a public face-up
// portion and a hidden face-down portion, the rest forming the pick pool.
func (e *Engine) runDiscard() {
	e.phase = PhaseDiscard
	e.emit(EventPhaseChanged, PhaseChangedPayload{Round: e.round, Phase: PhaseDiscard})

	catalogue := domain.CharacterCatalogue()
	e.rng.Shuffle(len(catalogue), func(i, j int) { catalogue[i], catalogue[j] = catalogue[j], catalogue[i] })

	n := e.seatCount()
	discardCount := domain.CharacterCount - (n + 1)
	faceUpCount := 1
	if n <= 4 {
		faceUpCount = 2
	}
	if faceUpCount > discardCount {
		faceUpCount = discardCount
	}

	e.faceUp = append([]domain.CharacterNumber(nil), catalogue[:faceUpCount]...)
	e.faceDown = append([]domain.CharacterNumber(nil), catalogue[faceUpCount:discardCount]...)
	e.availableChars = append([]domain.CharacterNumber(nil), catalogue[discardCount:]...)
	sort.Slice(e.availableChars, func(i, j int) bool { return e.availableChars[i] < e.availableChars[j] })

	e.emit(EventFaceUpDiscards, FaceUpDiscardsPayload{
		Characters: charactersToInts(e.faceUp),
		FaceDown:   len(e.faceDown),
	})
}

// startBidding orders players poorest-first and prompts the first bidder.
func (e *Engine) startBidding() {
	e.phase = PhaseBidding
	e.emit(EventPhaseChanged, PhaseChangedPayload{Round: e.round, Phase: PhaseBidding})

	order := make([]string, 0, e.seatCount())
	for _, s := range e.seats {
		order = append(order, s.id)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return e.PlayerCash(order[i]) < e.PlayerCash(order[j])
	})
	e.bidOrder = order
	e.bidIdx = 0
	e.slotTakenBy = make([]string, len(e.cfg.BidSlots))
	e.promptBid()
}

func (e *Engine) promptBid() {
	if e.bidIdx >= len(e.bidOrder) {
		e.finishBidding()
		return
	}
	actor := e.bidOrder[e.bidIdx]
	cash := e.PlayerCash(actor)
	candidates := e.openSlotsFor(actor, cash)
	if len(candidates) == 0 {
		// Every affordable slot is gone. Suspending here would leave a
		// request no input can answer, so the bidder is pushed onto the
		// cheapest remaining slot, paying at most their cash.
		e.forceBid(actor, cash)
		return
	}
	e.setPending(ReqBid, actor, candidates)

	views := make([]BidSlotView, 0, len(e.cfg.BidSlots))
	for i, slot := range e.cfg.BidSlots {
		if slot.RequiresFivePlayers && e.seatCount() < 5 {
			continue
		}
		views = append(views, BidSlotView{Index: i, Amount: slot.Amount, Taken: e.slotTakenBy[i] != ""})
	}
	e.emit(EventBidTurn, BidTurnPayload{PlayerID: actor, Cash: cash, Slots: views})
}

func (e *Engine) openSlotsFor(actor string, cash int) []int {
	var out []int
	for i, slot := range e.cfg.BidSlots {
		if e.slotTakenBy[i] != "" {
			continue
		}
		if slot.RequiresFivePlayers && e.seatCount() < 5 {
			continue
		}
		if slot.Amount > 0 && cash < slot.Amount {
			continue
		}
		out = append(out, i)
	}
	return out
}

// forceBid resolves a bidder with no affordable slot: the cheapest open
// slot is claimed on their behalf and the charge is capped by their cash.
// Only positive-amount slots can remain open here, since any free or paying
// slot would have been a candidate.
func (e *Engine) forceBid(actor string, cash int) {
	slot := -1
	for i, s := range e.cfg.BidSlots {
		if e.slotTakenBy[i] != "" {
			continue
		}
		if s.RequiresFivePlayers && e.seatCount() < 5 {
			continue
		}
		if slot == -1 || s.Amount < e.cfg.BidSlots[slot].Amount {
			slot = i
		}
	}
	if slot == -1 {
		// More bidders than slots cannot happen with a full board, but a
		// shrunk config must not wedge the round.
		e.roundBids[actor] = 0
		e.bidIdx++
		e.promptBid()
		return
	}

	paid := e.cfg.BidSlots[slot].Amount
	if paid > cash {
		paid = cash
	}
	e.ledger.RemoveMoney(actor, paid)
	e.slotTakenBy[slot] = actor
	e.roundBids[actor] = paid
	if p, ok := e.ledger.Player(actor); ok {
		p.BidTotal += paid
		e.emit(EventBidPlaced, BidPlacedPayload{PlayerID: actor, Slot: slot, Amount: paid})
		e.emitPlayerState(p)
	}

	e.bidIdx++
	e.promptBid()
}

// SubmitBid claims a bid slot for the current bidder. Positive amounts are
// paid immediately, negative amounts are received; the signed amount joins
// the player's lifetime bid total used for end-game tie-breaks.
func (e *Engine) SubmitBid(pid string, slot int) ([]Event, error) {
	if err := e.requirePending(ReqBid, pid); err != nil {
		return nil, err
	}
	if !containsInt(e.pending.Candidates, slot) {
		return nil, ErrInvalidChoice
	}

	amount := e.cfg.BidSlots[slot].Amount
	if amount > 0 {
		e.ledger.RemoveMoney(pid, amount)
	} else if amount < 0 {
		e.ledger.AddMoney(pid, -amount)
	}
	e.slotTakenBy[slot] = pid
	e.roundBids[pid] = amount
	if p, ok := e.ledger.Player(pid); ok {
		p.BidTotal += amount
		e.emit(EventBidPlaced, BidPlacedPayload{PlayerID: pid, Slot: slot, Amount: amount})
		e.emitPlayerState(p)
	}

	e.bidIdx++
	e.promptBid()
	return e.take(), nil
}

// finishBidding computes the selection order: bid amount descending, ties
// broken uniformly at random.
func (e *Engine) finishBidding() {
	order := append([]string(nil), e.bidOrder...)
	e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	sort.SliceStable(order, func(i, j int) bool {
		return e.roundBids[order[i]] > e.roundBids[order[j]]
	})
	e.startSelection(order)
}

func (e *Engine) startSelection(order []string) {
	e.phase = PhaseSelection
	e.emit(EventPhaseChanged, PhaseChangedPayload{Round: e.round, Phase: PhaseSelection})
	e.selectionOrder = order
	e.selectionIdx = 0
	e.promptSelection()
}

func (e *Engine) promptSelection() {
	if e.selectionIdx >= len(e.selectionOrder) {
		e.startMain()
		return
	}
	actor := e.selectionOrder[e.selectionIdx]
	options := charactersToInts(e.availableChars)
	e.setPending(ReqCharacterPick, actor, options)
	e.emit(EventSelectionTurn, SelectionTurnPayload{PlayerID: actor})
	// The pick pool would leak the face-down discards; only the chooser
	// sees it.
	e.emit(EventCharacterOptions, CharacterOptionsPayload{Options: options}, actor)
}

// ConfirmCharacter assigns a character from the available pool to the
// current chooser. The choice itself stays hidden until the turn begins.
func (e *Engine) ConfirmCharacter(pid string, number int) ([]Event, error) {
	if err := e.requirePending(ReqCharacterPick, pid); err != nil {
		return nil, err
	}
	if !containsInt(e.pending.Candidates, number) {
		return nil, ErrInvalidChoice
	}

	chosen := domain.CharacterNumber(number)
	for i, n := range e.availableChars {
		if n == chosen {
			e.availableChars = append(e.availableChars[:i], e.availableChars[i+1:]...)
			break
		}
	}
	e.assignments[chosen] = pid
	if p, ok := e.ledger.Player(pid); ok {
		p.Character = chosen
	}
	e.emit(EventCharacterChosen, CharacterChosenPayload{PlayerID: pid})

	e.selectionIdx++
	e.promptSelection()
	return e.take(), nil
}

// startMain queues the assigned characters in ascending numeric order; this
// ordering is the pacing rule several abilities key off.
func (e *Engine) startMain() {
	e.phase = PhaseMain
	e.emit(EventPhaseChanged, PhaseChangedPayload{Round: e.round, Phase: PhaseMain})

	queue := make([]domain.CharacterNumber, 0, len(e.assignments))
	for n := range e.assignments {
		queue = append(queue, n)
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })
	e.turnQueue = queue
	e.turnIdx = 0
	e.nextTurn()
}

func (e *Engine) nextTurn() {
	if e.turnIdx >= len(e.turnQueue) {
		e.endRound()
		return
	}
	number := e.turnQueue[e.turnIdx]
	owner := e.assignments[number]
	e.resolveTheftsAgainst(owner)
	e.beginTurn(owner, number)
}

// resolveTheftsAgainst charges the victim before they act, paying each
// waiting thief at most what the victim still has.
func (e *Engine) resolveTheftsAgainst(victimID string) {
	remaining := e.pendingThefts[:0]
	for _, theft := range e.pendingThefts {
		if theft.victimID != victimID {
			remaining = append(remaining, theft)
			continue
		}
		paid := e.ledger.RemoveMoney(victimID, theft.amount)
		e.ledger.AddMoney(theft.thiefID, paid)
		e.emit(EventThiefPaid, ThiefPaidPayload{
			ThiefID:  theft.thiefID,
			VictimID: victimID,
			Amount:   paid,
		})
		if p, ok := e.ledger.Player(victimID); ok {
			e.emitPlayerState(p)
		}
		if p, ok := e.ledger.Player(theft.thiefID); ok {
			e.emitPlayerState(p)
		}
	}
	e.pendingThefts = remaining
}

func (e *Engine) beginTurn(pid string, number domain.CharacterNumber) {
	e.turn = newTurnState(pid, number, e.cfg.BuyLimit, e.cfg.SellLimit)
	e.market.ClearTurnRecords()
	e.setPending(ReqTurnAction, pid, nil)
	e.emit(EventTurnBegan, TurnPayload{
		PlayerID:  pid,
		Character: int(number),
		BuyLimit:  e.turn.buyLimit,
		SellLimit: e.turn.sellLimit,
	})
}
