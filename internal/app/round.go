package app

import "stockraid/internal/domain"

// endRound runs the fixed settlement order: reveal manipulations, re-check
// boundaries, commit close sells, pay the close-sale queue, re-check again,
// then collect taxes. Thief payouts are deliberately absent: they fire at
// the victim's next turn start.
func (e *Engine) endRound() {
	e.pending = nil
	e.turn = nil

	e.revealManipulations()
	e.market.CheckAllBoundaries()

	e.ledger.CommitCloseSells()
	for _, p := range e.ledger.Players() {
		e.emitPlayerState(p)
	}
	for _, res := range e.market.ProcessCloseSales() {
		e.emit(EventCloseSellPaid, CloseSellPaidPayload{
			PlayerID:   res.PlayerID,
			Instrument: int(res.Instrument),
			Payout:     res.Payout,
		})
		if p, ok := e.ledger.Player(res.PlayerID); ok {
			e.emitPlayerState(p)
		}
	}
	e.market.CheckAllBoundaries()

	e.collectTaxes()

	e.emit(EventRoundEnded, RoundEndedPayload{Round: e.round})
	e.supply.CleanupRound()

	if e.round >= e.cfg.MaxRounds {
		e.finishGame()
		return
	}
	e.round++
	e.startRound()
}

// revealManipulations applies the queued cards in commit order. Dividend
// cards pay every holder per unit; all others move the price with normal
// boundary resolution.
func (e *Engine) revealManipulations() {
	for _, pm := range e.pendingManips {
		payload := ManipulationRevealedPayload{
			PlayerID:   pm.playerID,
			Card:       int(pm.card),
			Label:      pm.card.String(),
			Instrument: int(pm.instrument),
		}
		if pm.card.IsDividend() {
			dividends := make(map[string]int)
			for pid, qty := range e.ledger.Holders(pm.instrument) {
				amount := qty * e.cfg.DividendPerUnit
				e.ledger.AddMoney(pid, amount)
				dividends[pid] = amount
			}
			payload.Dividends = dividends
			e.emit(EventManipulationRevealed, payload)
			for pid := range dividends {
				if p, ok := e.ledger.Player(pid); ok {
					e.emitPlayerState(p)
				}
			}
			continue
		}
		e.emit(EventManipulationRevealed, payload)
		e.market.AdjustPrice(pm.instrument, pm.card.PriceDelta())
	}
	for _, pm := range e.pendingManips {
		e.supply.DiscardManipulation(pm.card)
	}
	e.pendingManips = nil
}

// collectTaxes charges every other holder of the designated instrument the
// per-unit rate, capped by what they have, and pays it to the collector.
func (e *Engine) collectTaxes() {
	for _, pt := range e.pendingTaxes {
		collected := make(map[string]int)
		total := 0
		for pid, qty := range e.ledger.Holders(pt.instrument) {
			if pid == pt.collectorID {
				continue
			}
			paid := e.ledger.RemoveMoney(pid, qty*e.cfg.TaxPerUnit)
			if paid > 0 {
				collected[pid] = paid
				total += paid
			}
		}
		e.ledger.AddMoney(pt.collectorID, total)
		e.emit(EventTaxCollected, TaxCollectedPayload{
			CollectorID: pt.collectorID,
			Instrument:  int(pt.instrument),
			Collected:   collected,
		})
		for pid := range collected {
			if p, ok := e.ledger.Player(pid); ok {
				e.emitPlayerState(p)
			}
		}
		if p, ok := e.ledger.Player(pt.collectorID); ok {
			e.emitPlayerState(p)
		}
		e.supply.DiscardTax(pt.instrument)
	}
	e.pendingTaxes = nil
}

// finishGame converts remaining holdings to cash and decides the winner:
// highest cash, ties broken by the higher lifetime bid total, then by
// registration order.
func (e *Engine) finishGame() {
	e.ledger.SettleRemainingHoldings()
	for _, p := range e.ledger.Players() {
		e.emitPlayerState(p)
	}

	players := e.ledger.Players()
	winner := players[0]
	for _, p := range players[1:] {
		if p.Cash > winner.Cash ||
			(p.Cash == winner.Cash && p.BidTotal > winner.BidTotal) {
			winner = p
		}
	}

	standings := make([]Standing, 0, len(players))
	for _, p := range players {
		standings = append(standings, Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Cash:     p.Cash,
			BidTotal: p.BidTotal,
		})
	}

	e.over = true
	e.phase = PhaseEnded
	e.pending = nil
	e.emit(EventGameEnded, GameEndedPayload{WinnerID: winner.ID, Standings: standings})
}

// Winner returns the recorded winner id once the game is over.
func (e *Engine) Winner() string {
	if !e.over {
		return ""
	}
	players := e.ledger.Players()
	if len(players) == 0 {
		return ""
	}
	winner := players[0]
	for _, p := range players[1:] {
		if p.Cash > winner.Cash ||
			(p.Cash == winner.Cash && p.BidTotal > winner.BidTotal) {
			winner = p
		}
	}
	return winner.ID
}

// PlayerHoldings returns a copy of a player's holdings keyed by instrument.
func (e *Engine) PlayerHoldings(id string) [domain.InstrumentCount]int {
	if p, ok := e.ledger.Player(id); ok {
		return p.Holdings
	}
	return [domain.InstrumentCount]int{}
}
