package bot

import (
	"math/rand"
	"strings"

	"stockraid/internal/app"
	"stockraid/internal/domain"
)

// ActionKind names one resume entry point of the engine.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSubmitBid
	ActionConfirmCharacter
	ActionBuy
	ActionEndTurn
	ActionChooseInstrument
	ActionChooseManipulation
	ActionConfirmGamble
	ActionCancelAbility
)

// Action is one input the match handler feeds into the engine on a player's
// behalf.
type Action struct {
	Kind       ActionKind
	Slot       int
	Number     int
	Instrument domain.Instrument
	CardIndex  int
	Count      int
}

const botIDPrefix = "bot-"

// IsBot reports whether the user id belongs to a bot seat.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, botIDPrefix)
}

// Agent occupies a seat and produces modestly active moves on its turns.
type Agent struct {
	ID   string
	Name string
	rng  *rand.Rand
}

// NewAgent creates an agent for the given bot user id.
func NewAgent(id, name string, rng *rand.Rand) *Agent {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Agent{ID: id, Name: name, rng: rng}
}

// Fallback is the stall policy: the most conservative legal response to the
// engine's pending request. It is used when a human's decision deadline
// expires, so it never commits the player to anything beyond declining and
// passing.
func Fallback(eng *app.Engine) (Action, bool) {
	p := eng.Pending()
	if p == nil {
		return Action{}, false
	}
	switch p.Kind {
	case app.ReqBid:
		if len(p.Candidates) == 0 {
			return Action{}, false
		}
		// Lowest amount: receive cash or pay the least.
		return Action{Kind: ActionSubmitBid, Slot: cheapestSlot(eng, p.Candidates)}, true
	case app.ReqCharacterPick:
		if len(p.Candidates) == 0 {
			return Action{}, false
		}
		return Action{Kind: ActionConfirmCharacter, Number: p.Candidates[0]}, true
	case app.ReqTurnAction:
		return Action{Kind: ActionEndTurn}, true
	case app.ReqGamble:
		return Action{Kind: ActionConfirmGamble, Count: 0}, true
	case app.ReqManipChoice, app.ReqInstrument, app.ReqCharacterTarget, app.ReqConfirmTarget:
		return Action{Kind: ActionCancelAbility}, true
	}
	return Action{}, false
}

func cheapestSlot(eng *app.Engine, candidates []int) int {
	cfg := eng.BidSlotAmounts()
	best := candidates[0]
	for _, c := range candidates[1:] {
		if cfg[c] < cfg[best] {
			best = c
		}
	}
	return best
}

// Play computes the agent's next move for the pending request. Bots trade a
// little to keep the market moving but never start abilities.
func (a *Agent) Play(eng *app.Engine) (Action, bool) {
	p := eng.Pending()
	if p == nil || p.Actor != a.ID {
		return Action{}, false
	}
	switch p.Kind {
	case app.ReqBid:
		if len(p.Candidates) == 0 {
			return Action{}, false
		}
		// Prefer free or paying slots it can spare cash for, at random.
		return Action{Kind: ActionSubmitBid, Slot: p.Candidates[a.rng.Intn(len(p.Candidates))]}, true
	case app.ReqCharacterPick:
		if len(p.Candidates) == 0 {
			return Action{}, false
		}
		return Action{Kind: ActionConfirmCharacter, Number: p.Candidates[a.rng.Intn(len(p.Candidates))]}, true
	case app.ReqTurnAction:
		if a.rng.Intn(2) == 0 {
			if inst, ok := a.affordableInstrument(eng); ok {
				return Action{Kind: ActionBuy, Instrument: inst}, true
			}
		}
		return Action{Kind: ActionEndTurn}, true
	default:
		return Fallback(eng)
	}
}

func (a *Agent) affordableInstrument(eng *app.Engine) (domain.Instrument, bool) {
	cash := eng.PlayerCash(a.ID)
	instruments := eng.Instruments()
	a.rng.Shuffle(len(instruments), func(i, j int) {
		instruments[i], instruments[j] = instruments[j], instruments[i]
	})
	for _, inst := range instruments {
		if eng.Price(inst) <= cash {
			return inst, true
		}
	}
	return 0, false
}
