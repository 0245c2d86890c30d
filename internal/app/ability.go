package app

import "stockraid/internal/domain"

type abilityStage int

const (
	stageManipChoice abilityStage = iota
	stageInstrument
	stageCharTarget
	stageConfirmTarget
	stageGamble
)

const (
	purposeManipulate = "manipulate"
	purposeProtect    = "protect"
	purposeTax        = "tax"
)

// abilityFlow is the engine-side state of a multi-step ability between its
// first input request and its commit or cancellation. A cancel before commit
// leaves the ability available for a retry later in the same turn.
type abilityFlow struct {
	character domain.CharacterNumber
	stage     abilityStage
	purpose   string

	chosenCard domain.ManipulationCard
	hasChosen  bool

	drawn    domain.ManipulationCard
	hasDrawn bool

	jackpotClaim int

	prevBuyLimit  int
	prevSellLimit int

	target domain.CharacterNumber

	offeredUnits int
}

func (e *Engine) resumeTurn() {
	e.setPending(ReqTurnAction, e.turn.playerID, nil)
}

// UseAbility triggers the acting character's one-shot ability. Immediate
// abilities commit here; the rest open their first input request.
func (e *Engine) UseAbility(pid string) ([]Event, error) {
	if err := e.requirePending(ReqTurnAction, pid); err != nil {
		return nil, err
	}
	t := e.turn
	if !t.abilityAvailable {
		return nil, ErrAbilityUsed
	}

	// A blocked character still consumes its ability when triggered; the
	// attempt is public and nothing happens.
	if e.blocked[t.character] {
		t.pushBarrier()
		e.emit(EventAbilityBlocked, AbilityPayload{PlayerID: pid, Character: int(t.character)})
		return e.take(), nil
	}

	switch t.character {
	case domain.CharacterTrader:
		t.buyDelta = -1
		t.sellDelta = 1
		t.pushBarrier()
		e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(t.character)})

	case domain.CharacterInheritor:
		inst := e.supply.DrawRandomInstrument()
		e.ledger.AddStock(pid, inst, 1)
		t.pushBarrier()
		e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(t.character)})
		if p, ok := e.ledger.Player(pid); ok {
			e.emitPlayerState(p)
		}

	case domain.CharacterBlocker, domain.CharacterThief:
		enabled, disabled := e.characterTargets(t.character)
		if len(enabled) == 0 {
			e.emit(EventNotice, NoticePayload{Text: "no valid targets"}, pid)
			break
		}
		t.flow = &abilityFlow{character: t.character, stage: stageCharTarget}
		e.setPending(ReqCharacterTarget, pid, enabled)
		e.emit(EventAskCharacterTarget, AskCharacterTargetPayload{Enabled: enabled, Disabled: disabled}, pid)

	case domain.CharacterManipulator:
		if t.cachedTrio == nil {
			t.cachedTrio = []domain.ManipulationCard{
				e.supply.DrawManipulation(),
				e.supply.DrawManipulation(),
				e.supply.DrawManipulation(),
			}
		}
		t.flow = &abilityFlow{character: t.character, stage: stageManipChoice}
		candidates := []int{0, 1, 2}
		e.setPending(ReqManipChoice, pid, candidates)
		views := make([]ManipCardView, len(t.cachedTrio))
		for i, card := range t.cachedTrio {
			views[i] = ManipCardView{Index: i, Card: int(card), Label: card.String()}
		}
		e.emit(EventAskManipulationChoice, AskManipulationChoicePayload{Cards: views}, pid)

	case domain.CharacterLotteryWinner:
		claim := e.supply.ClaimJackpot()
		e.ledger.AddMoney(pid, claim)
		e.emit(EventJackpotClaimed, JackpotClaimedPayload{PlayerID: pid, Amount: claim})
		if p, ok := e.ledger.Player(pid); ok {
			e.emitPlayerState(p)
		}
		card := e.supply.DrawManipulation()
		flow := &abilityFlow{character: t.character, jackpotClaim: claim, drawn: card, hasDrawn: true}
		e.emit(EventManipulationPeek, ManipulationPeekPayload{Card: int(card), Label: card.String()}, pid)
		candidates := e.manipulableInstruments()
		if len(candidates) == 0 {
			e.supply.ReturnManipulationToDeck(card)
			t.pushBarrier()
			e.emit(EventNotice, NoticePayload{Text: "no instrument can be manipulated"}, pid)
			e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(t.character)})
			break
		}
		flow.stage = stageInstrument
		flow.purpose = purposeManipulate
		t.flow = flow
		e.setPending(ReqInstrument, pid, candidates)
		e.emit(EventAskInstrument, AskInstrumentPayload{Purpose: purposeManipulate, Candidates: candidates}, pid)

	case domain.CharacterBroker:
		flow := &abilityFlow{character: t.character, prevBuyLimit: t.buyLimit, prevSellLimit: t.sellLimit}
		t.buyLimit++
		t.sellLimit++
		card := e.supply.DrawManipulation()
		flow.drawn = card
		flow.hasDrawn = true
		e.emit(EventManipulationPeek, ManipulationPeekPayload{Card: int(card), Label: card.String()}, pid)
		candidates := e.manipulableInstruments()
		if len(candidates) == 0 {
			e.supply.ReturnManipulationToDeck(card)
			t.pushBarrier()
			e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(t.character)})
			break
		}
		flow.stage = stageInstrument
		flow.purpose = purposeManipulate
		t.flow = flow
		e.setPending(ReqInstrument, pid, candidates)
		e.emit(EventAskInstrument, AskInstrumentPayload{Purpose: purposeManipulate, Candidates: candidates}, pid)

	case domain.CharacterGambler:
		cash := e.PlayerCash(pid)
		cost := e.cfg.GambleCostPerUnit
		units := 0
		switch {
		case cash >= 2*cost:
			units = 2
		case cash >= cost:
			units = 1
		}
		if units == 0 {
			e.emit(EventNotice, NoticePayload{Text: "not enough cash to gamble"}, pid)
			break
		}
		t.flow = &abilityFlow{character: t.character, stage: stageGamble, offeredUnits: units}
		e.setPending(ReqGamble, pid, []int{0, 1, units})
		e.emit(EventAskGamble, AskGamblePayload{MaxUnits: units, CostPerUnit: cost}, pid)

	case domain.CharacterTaxCollector:
		candidates := instrumentsToInts(e.market.Available())
		t.flow = &abilityFlow{character: t.character, stage: stageInstrument, purpose: purposeTax}
		e.setPending(ReqInstrument, pid, candidates)
		e.emit(EventAskInstrument, AskInstrumentPayload{Purpose: purposeTax, Candidates: candidates}, pid)
	}

	return e.take(), nil
}

// characterTargets builds the enabled target numbers for Blocker and Thief:
// never a face-up discard, self, an already blocked or stolen number, and
// for the Thief never the Blocker. Face-down discards stay targetable so a
// miss reveals nothing about which characters are out of play.
func (e *Engine) characterTargets(acting domain.CharacterNumber) (enabled, disabled []int) {
	faceUp := make(map[domain.CharacterNumber]bool, len(e.faceUp))
	for _, n := range e.faceUp {
		faceUp[n] = true
	}
	for _, n := range domain.CharacterCatalogue() {
		ok := !faceUp[n] &&
			n != acting &&
			!e.blocked[n] &&
			!e.stolen[n] &&
			!(acting == domain.CharacterThief && n == domain.CharacterBlocker)
		if ok {
			enabled = append(enabled, int(n))
		} else {
			disabled = append(disabled, int(n))
		}
	}
	return enabled, disabled
}

// manipulableInstruments lists instruments not yet reserved by a pending
// manipulation and not protected this round.
func (e *Engine) manipulableInstruments() []int {
	var out []int
	for _, inst := range e.market.Available() {
		if !e.manipulated[inst] && !e.protected[inst] {
			out = append(out, int(inst))
		}
	}
	return out
}

// ChooseManipulation picks one card of the Manipulator's drawn trio.
func (e *Engine) ChooseManipulation(pid string, index int) ([]Event, error) {
	if err := e.requirePending(ReqManipChoice, pid); err != nil {
		return nil, err
	}
	if !containsInt(e.pending.Candidates, index) {
		return nil, ErrInvalidChoice
	}
	t := e.turn
	flow := t.flow
	flow.chosenCard = t.cachedTrio[index]
	flow.hasChosen = true

	candidates := e.manipulableInstruments()
	if len(candidates) == 0 {
		// Nothing to target; the trio stays cached and the ability stays
		// available for this turn.
		t.flow = nil
		e.resumeTurn()
		e.emit(EventNotice, NoticePayload{Text: "no instrument can be manipulated"}, pid)
		return e.take(), nil
	}

	flow.stage = stageInstrument
	flow.purpose = purposeManipulate
	e.setPending(ReqInstrument, pid, candidates)
	e.emit(EventAskInstrument, AskInstrumentPayload{Purpose: purposeManipulate, Candidates: candidates}, pid)
	return e.take(), nil
}

// ChooseInstrument answers any ability step that asks for an instrument:
// manipulation targets, the Manipulator's protection pick, and the Tax
// Collector's designation.
func (e *Engine) ChooseInstrument(pid string, inst domain.Instrument) ([]Event, error) {
	if err := e.requirePending(ReqInstrument, pid); err != nil {
		return nil, err
	}
	if !containsInt(e.pending.Candidates, int(inst)) {
		return nil, ErrInvalidChoice
	}
	t := e.turn
	flow := t.flow

	switch flow.purpose {
	case purposeManipulate:
		e.manipulated[inst] = true
		switch flow.character {
		case domain.CharacterManipulator:
			e.pendingManips = append(e.pendingManips, pendingManipulation{
				playerID:   pid,
				card:       flow.chosenCard,
				instrument: inst,
			})
			// Consume the trio: one card queued, one discarded, one back to
			// the deck.
			rest := removeOneCard(t.cachedTrio, flow.chosenCard)
			e.supply.DiscardManipulation(rest[0])
			e.supply.ReturnManipulationToDeck(rest[1])
			t.cachedTrio = nil

			protect := e.manipulableInstruments()
			if len(protect) == 0 {
				t.flow = nil
				t.pushBarrier()
				e.resumeTurn()
				e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(flow.character)})
				return e.take(), nil
			}
			flow.purpose = purposeProtect
			e.setPending(ReqInstrument, pid, protect)
			e.emit(EventAskInstrument, AskInstrumentPayload{Purpose: purposeProtect, Candidates: protect}, pid)
			return e.take(), nil

		default: // Lottery Winner, Broker: queue the single drawn card
			e.pendingManips = append(e.pendingManips, pendingManipulation{
				playerID:   pid,
				card:       flow.drawn,
				instrument: inst,
			})
			t.flow = nil
			t.pushBarrier()
			e.resumeTurn()
			e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(flow.character)})
			return e.take(), nil
		}

	case purposeProtect:
		e.protected[inst] = true
		t.flow = nil
		t.pushBarrier()
		e.resumeTurn()
		e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(flow.character)})
		return e.take(), nil

	case purposeTax:
		e.supply.TakeTax(inst)
		e.pendingTaxes = append(e.pendingTaxes, pendingTax{collectorID: pid, instrument: inst})
		t.flow = nil
		t.pushBarrier()
		e.resumeTurn()
		e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(flow.character)})
		return e.take(), nil
	}

	return nil, ErrNoAbilityPending
}

func removeOneCard(cards []domain.ManipulationCard, card domain.ManipulationCard) []domain.ManipulationCard {
	out := make([]domain.ManipulationCard, 0, len(cards))
	removed := false
	for _, c := range cards {
		if !removed && c == card {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

// ChooseCharacterTarget picks the number a Blocker or Thief aims at; the
// engine then asks for confirmation.
func (e *Engine) ChooseCharacterTarget(pid string, number int) ([]Event, error) {
	if err := e.requirePending(ReqCharacterTarget, pid); err != nil {
		return nil, err
	}
	if !containsInt(e.pending.Candidates, number) {
		return nil, ErrInvalidChoice
	}
	flow := e.turn.flow
	flow.target = domain.CharacterNumber(number)
	flow.stage = stageConfirmTarget
	e.setPending(ReqConfirmTarget, pid, nil)
	e.emit(EventAskConfirmTarget, AskConfirmTargetPayload{
		Character: int(flow.character),
		Target:    number,
	}, pid)
	return e.take(), nil
}

// ConfirmTarget commits or rewinds the Blocker/Thief target choice.
// Declining reopens the target prompt; committing marks the number and, for
// the Thief, schedules the theft. Whether the number is actually owned is
// never checked here: targeting an unowned number looks identical from the
// outside and simply does nothing later.
func (e *Engine) ConfirmTarget(pid string, accept bool) ([]Event, error) {
	if err := e.requirePending(ReqConfirmTarget, pid); err != nil {
		return nil, err
	}
	t := e.turn
	flow := t.flow

	if !accept {
		enabled, disabled := e.characterTargets(flow.character)
		flow.stage = stageCharTarget
		flow.target = domain.CharacterNone
		e.setPending(ReqCharacterTarget, pid, enabled)
		e.emit(EventAskCharacterTarget, AskCharacterTargetPayload{Enabled: enabled, Disabled: disabled}, pid)
		return e.take(), nil
	}

	target := flow.target
	switch flow.character {
	case domain.CharacterBlocker:
		e.blocked[target] = true
	case domain.CharacterThief:
		e.stolen[target] = true
		if victimID, owned := e.assignments[target]; owned && victimID != pid {
			if victim, ok := e.ledger.Player(victimID); ok && victim.Cash > 0 {
				e.pendingThefts = append(e.pendingThefts, pendingTheft{
					thiefID:  pid,
					victimID: victimID,
					amount:   victim.Cash / 2,
				})
			}
		}
	}

	t.flow = nil
	t.pushBarrier()
	e.resumeTurn()
	e.emit(EventAbilityUsed, AbilityPayload{
		PlayerID:  pid,
		Character: int(flow.character),
		Target:    int(target),
	})
	return e.take(), nil
}

// ConfirmGamble buys count random instrument units at the fixed price;
// count 0 declines and keeps the ability available.
func (e *Engine) ConfirmGamble(pid string, count int) ([]Event, error) {
	if err := e.requirePending(ReqGamble, pid); err != nil {
		return nil, err
	}
	t := e.turn
	flow := t.flow

	if count == 0 {
		t.flow = nil
		e.resumeTurn()
		e.emit(EventAbilityCancelled, AbilityPayload{PlayerID: pid, Character: int(flow.character)}, pid)
		return e.take(), nil
	}
	cost := count * e.cfg.GambleCostPerUnit
	if count < 0 || count > flow.offeredUnits {
		return nil, ErrInvalidChoice
	}
	if e.PlayerCash(pid) < cost {
		return nil, ErrCannotAfford
	}

	e.ledger.RemoveMoney(pid, cost)
	for i := 0; i < count; i++ {
		e.ledger.AddStock(pid, e.supply.DrawRandomInstrument(), 1)
	}
	t.flow = nil
	t.pushBarrier()
	e.resumeTurn()
	e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(flow.character)})
	if p, ok := e.ledger.Player(pid); ok {
		e.emitPlayerState(p)
	}
	return e.take(), nil
}

// CancelAbility abandons the in-flight ability step. Everything uncommitted
// is rolled back (claimed jackpot, drawn cards, limit raises) and the
// ability stays available for the rest of the turn. The exception is the
// Manipulator's protection step, where the manipulation is already
// committed and cancelling only skips the protection.
func (e *Engine) CancelAbility(pid string) ([]Event, error) {
	if !e.started {
		return nil, ErrGameNotStarted
	}
	if e.over {
		return nil, ErrGameOver
	}
	if e.pending == nil || e.pending.Actor != pid {
		return nil, ErrNotYourTurn
	}
	t := e.turn
	if t == nil || t.flow == nil {
		return nil, ErrNoAbilityPending
	}
	switch e.pending.Kind {
	case ReqManipChoice, ReqInstrument, ReqCharacterTarget, ReqConfirmTarget, ReqGamble:
	default:
		return nil, ErrNoAbilityPending
	}

	flow := t.flow
	committed := flow.purpose == purposeProtect

	if !committed {
		switch flow.character {
		case domain.CharacterLotteryWinner:
			if flow.hasDrawn {
				e.supply.ReturnManipulationToDeck(flow.drawn)
			}
			e.ledger.RemoveMoney(pid, flow.jackpotClaim)
			e.supply.RestoreJackpot(flow.jackpotClaim)
			if p, ok := e.ledger.Player(pid); ok {
				e.emitPlayerState(p)
			}
		case domain.CharacterBroker:
			if flow.hasDrawn {
				e.supply.ReturnManipulationToDeck(flow.drawn)
			}
			t.buyLimit = flow.prevBuyLimit
			t.sellLimit = flow.prevSellLimit
		}
		// The Manipulator's trio stays cached for a retry this turn.
	}

	t.flow = nil
	if committed {
		t.pushBarrier()
		e.emit(EventAbilityUsed, AbilityPayload{PlayerID: pid, Character: int(flow.character)})
	} else {
		e.emit(EventAbilityCancelled, AbilityPayload{PlayerID: pid, Character: int(flow.character)}, pid)
	}
	e.resumeTurn()
	return e.take(), nil
}
