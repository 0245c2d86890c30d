package domain

import "math/rand"

// Supply owns the shuffled manipulation and tax decks, their discard piles,
// the shared jackpot pool and the unbounded random instrument draw.
type Supply struct {
	rng       *rand.Rand
	available []Instrument

	manipDeck    []ManipulationCard
	manipDiscard []ManipulationCard

	taxDeck    []Instrument
	taxDiscard []Instrument

	jackpot     int
	jackpotStep int
}

// NewSupply builds freshly shuffled decks over the instruments in play.
func NewSupply(rng *rand.Rand, available []Instrument, jackpotStep int) *Supply {
	s := &Supply{
		rng:         rng,
		available:   append([]Instrument(nil), available...),
		jackpotStep: jackpotStep,
	}
	s.rebuildManipDeck()
	s.rebuildTaxDeck()
	return s
}

func (s *Supply) rebuildManipDeck() {
	s.manipDeck = ManipulationDeckComposition()
	s.manipDiscard = nil
	s.shuffleManip()
}

func (s *Supply) rebuildTaxDeck() {
	s.taxDeck = append([]Instrument(nil), s.available...)
	s.taxDiscard = nil
	s.rng.Shuffle(len(s.taxDeck), func(i, j int) {
		s.taxDeck[i], s.taxDeck[j] = s.taxDeck[j], s.taxDeck[i]
	})
}

func (s *Supply) shuffleManip() {
	s.rng.Shuffle(len(s.manipDeck), func(i, j int) {
		s.manipDeck[i], s.manipDeck[j] = s.manipDeck[j], s.manipDeck[i]
	})
}

// DrawManipulation takes the top manipulation card, recycling the discard
// pile when the deck is empty and rebuilding from scratch when both are.
func (s *Supply) DrawManipulation() ManipulationCard {
	if len(s.manipDeck) == 0 {
		if len(s.manipDiscard) > 0 {
			s.manipDeck = s.manipDiscard
			s.manipDiscard = nil
			s.shuffleManip()
		} else {
			s.rebuildManipDeck()
		}
	}
	card := s.manipDeck[len(s.manipDeck)-1]
	s.manipDeck = s.manipDeck[:len(s.manipDeck)-1]
	return card
}

// DiscardManipulation retires a card until the round's cleanup recycles it.
func (s *Supply) DiscardManipulation(card ManipulationCard) {
	s.manipDiscard = append(s.manipDiscard, card)
}

// ReturnManipulationToDeck puts a card straight back into the live draw
// pool. Used when a choice is reversed before commit.
func (s *Supply) ReturnManipulationToDeck(card ManipulationCard) {
	s.manipDeck = append(s.manipDeck, card)
	s.shuffleManip()
}

// ManipDeckSize reports the live draw pool size.
func (s *Supply) ManipDeckSize() int {
	return len(s.manipDeck)
}

// TakeTax removes the tax card of the given color from the live pool,
// recycling the discard pile first if needed.
func (s *Supply) TakeTax(inst Instrument) bool {
	if idx := indexOfInstrument(s.taxDeck, inst); idx >= 0 {
		s.taxDeck = append(s.taxDeck[:idx], s.taxDeck[idx+1:]...)
		return true
	}
	if idx := indexOfInstrument(s.taxDiscard, inst); idx >= 0 {
		s.taxDiscard = append(s.taxDiscard[:idx], s.taxDiscard[idx+1:]...)
		return true
	}
	return false
}

// DiscardTax retires a tax card until cleanup.
func (s *Supply) DiscardTax(inst Instrument) {
	s.taxDiscard = append(s.taxDiscard, inst)
}

// ReturnTaxToDeck puts a tax card straight back into the live pool.
func (s *Supply) ReturnTaxToDeck(inst Instrument) {
	s.taxDeck = append(s.taxDeck, inst)
}

func indexOfInstrument(list []Instrument, inst Instrument) int {
	for i, v := range list {
		if v == inst {
			return i
		}
	}
	return -1
}

// DrawRandomInstrument picks uniformly from the instruments in play.
func (s *Supply) DrawRandomInstrument() Instrument {
	return s.available[s.rng.Intn(len(s.available))]
}

// IncreaseJackpot grows the pool by the configured step.
func (s *Supply) IncreaseJackpot() int {
	s.jackpot += s.jackpotStep
	return s.jackpot
}

// Jackpot returns the current pool.
func (s *Supply) Jackpot() int {
	return s.jackpot
}

// ClaimJackpot zeroes the pool and returns the claimed amount.
func (s *Supply) ClaimJackpot() int {
	amount := s.jackpot
	s.jackpot = 0
	return amount
}

// RestoreJackpot is the exact inverse of ClaimJackpot, used only while the
// claiming ability's follow-up step is still uncommitted.
func (s *Supply) RestoreJackpot(amount int) {
	s.jackpot += amount
}

// CleanupRound recycles both discard piles back into their decks and
// reshuffles, ready for the next round.
func (s *Supply) CleanupRound() {
	if len(s.manipDiscard) > 0 {
		s.manipDeck = append(s.manipDeck, s.manipDiscard...)
		s.manipDiscard = nil
		s.shuffleManip()
	}
	if len(s.taxDiscard) > 0 {
		s.taxDeck = append(s.taxDeck, s.taxDiscard...)
		s.taxDiscard = nil
	}
}
