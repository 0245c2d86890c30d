package app

import "stockraid/internal/domain"

// EventKind discriminates outbound engine events.
type EventKind int

const (
	EventGameStarted EventKind = iota
	EventPhaseChanged
	EventFaceUpDiscards
	EventJackpotGrown
	EventBidTurn
	EventBidPlaced
	EventSelectionTurn
	EventCharacterOptions
	EventCharacterChosen
	EventTurnBegan
	EventTurnEnded
	EventBought
	EventSold
	EventCloseSellQueued
	EventUndone
	EventPriceChanged
	EventBankruptcy
	EventCeiling
	EventPlayerState
	EventAbilityUsed
	EventAbilityBlocked
	EventAbilityCancelled
	EventAskCharacterTarget
	EventAskInstrument
	EventAskManipulationChoice
	EventAskConfirmTarget
	EventAskGamble
	EventManipulationPeek
	EventJackpotClaimed
	EventThiefPaid
	EventManipulationRevealed
	EventCloseSellPaid
	EventTaxCollected
	EventRoundEnded
	EventGameEnded
	EventNotice
)

// Event is one outbound notification. An empty Recipients list means
// broadcast; otherwise the transport must deliver to the listed players
// only.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string
}

// PhaseName is the wire spelling of an engine phase.
type PhaseName string

const (
	PhaseDiscard   PhaseName = "discard"
	PhaseBidding   PhaseName = "bidding"
	PhaseSelection PhaseName = "selection"
	PhaseMain      PhaseName = "main"
	PhaseEnded     PhaseName = "ended"
)

type PlayerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cash int    `json:"cash"`
}

type GameStartedPayload struct {
	Players     []PlayerSummary `json:"players"`
	Instruments []int           `json:"instruments"`
	StartPrice  int             `json:"start_price"`
	MaxRounds   int             `json:"max_rounds"`
}

type PhaseChangedPayload struct {
	Round int       `json:"round"`
	Phase PhaseName `json:"phase"`
}

type FaceUpDiscardsPayload struct {
	Characters []int `json:"characters"`
	FaceDown   int   `json:"face_down_count"`
}

type JackpotPayload struct {
	Amount int `json:"amount"`
}

type BidSlotView struct {
	Index  int  `json:"index"`
	Amount int  `json:"amount"`
	Taken  bool `json:"taken"`
}

type BidTurnPayload struct {
	PlayerID string        `json:"player_id"`
	Cash     int           `json:"cash"`
	Slots    []BidSlotView `json:"slots"`
}

type BidPlacedPayload struct {
	PlayerID string `json:"player_id"`
	Slot     int    `json:"slot"`
	Amount   int    `json:"amount"`
}

type SelectionTurnPayload struct {
	PlayerID string `json:"player_id"`
}

type CharacterOptionsPayload struct {
	Options []int `json:"options"`
}

type CharacterChosenPayload struct {
	PlayerID string `json:"player_id"`
}

type TurnPayload struct {
	PlayerID  string `json:"player_id"`
	Character int    `json:"character"`
	BuyLimit  int    `json:"buy_limit,omitempty"`
	SellLimit int    `json:"sell_limit,omitempty"`
}

type TradePayload struct {
	PlayerID   string `json:"player_id"`
	Instrument int    `json:"instrument"`
	Amount     int    `json:"amount"`
	Open       bool   `json:"open,omitempty"`
}

type UndonePayload struct {
	PlayerID   string `json:"player_id"`
	Action     string `json:"action"`
	Instrument int    `json:"instrument"`
}

type PriceChangedPayload struct {
	Instrument int `json:"instrument"`
	Old        int `json:"old"`
	New        int `json:"new"`
}

type BoundaryPayload struct {
	Instrument int            `json:"instrument"`
	Wiped      map[string]int `json:"wiped"`
	Payouts    map[string]int `json:"payouts,omitempty"`
	ResetPrice int            `json:"reset_price"`
}

type PlayerStatePayload struct {
	PlayerID     string `json:"player_id"`
	Cash         int    `json:"cash"`
	Holdings     []int  `json:"holdings"`
	PendingClose []int  `json:"pending_close"`
}

type AbilityPayload struct {
	PlayerID  string `json:"player_id"`
	Character int    `json:"character"`
	// Target carries the announced character number for Blocker and Thief
	// uses; zero otherwise.
	Target int `json:"target,omitempty"`
}

type AskCharacterTargetPayload struct {
	Enabled  []int `json:"enabled"`
	Disabled []int `json:"disabled"`
}

type AskInstrumentPayload struct {
	Purpose    string `json:"purpose"`
	Candidates []int  `json:"candidates"`
}

type ManipCardView struct {
	Index int    `json:"index"`
	Card  int    `json:"card"`
	Label string `json:"label"`
}

type AskManipulationChoicePayload struct {
	Cards []ManipCardView `json:"cards"`
}

type AskConfirmTargetPayload struct {
	Character int `json:"character"`
	Target    int `json:"target"`
}

type AskGamblePayload struct {
	MaxUnits    int `json:"max_units"`
	CostPerUnit int `json:"cost_per_unit"`
}

type ManipulationPeekPayload struct {
	Card  int    `json:"card"`
	Label string `json:"label"`
}

type JackpotClaimedPayload struct {
	PlayerID string `json:"player_id"`
	Amount   int    `json:"amount"`
}

type ThiefPaidPayload struct {
	ThiefID  string `json:"thief_id"`
	VictimID string `json:"victim_id"`
	Amount   int    `json:"amount"`
}

type ManipulationRevealedPayload struct {
	PlayerID   string         `json:"player_id"`
	Card       int            `json:"card"`
	Label      string         `json:"label"`
	Instrument int            `json:"instrument"`
	Dividends  map[string]int `json:"dividends,omitempty"`
}

type CloseSellPaidPayload struct {
	PlayerID   string `json:"player_id"`
	Instrument int    `json:"instrument"`
	Payout     int    `json:"payout"`
}

type TaxCollectedPayload struct {
	CollectorID string         `json:"collector_id"`
	Instrument  int            `json:"instrument"`
	Collected   map[string]int `json:"collected"`
}

type RoundEndedPayload struct {
	Round int `json:"round"`
}

type Standing struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Cash     int    `json:"cash"`
	BidTotal int    `json:"bid_total"`
}

type GameEndedPayload struct {
	WinnerID  string     `json:"winner_id"`
	Standings []Standing `json:"standings"`
}

type NoticePayload struct {
	Text string `json:"text"`
}

func (e *Engine) emit(kind EventKind, payload any, recipients ...string) {
	e.events = append(e.events, Event{Kind: kind, Payload: payload, Recipients: recipients})
}

func (e *Engine) emitPlayerState(p *domain.Player) {
	holdings := make([]int, domain.InstrumentCount)
	pending := make([]int, domain.InstrumentCount)
	for i := 0; i < int(domain.InstrumentCount); i++ {
		holdings[i] = p.Holdings[domain.Instrument(i)]
		pending[i] = p.PendingClose[domain.Instrument(i)]
	}
	e.emit(EventPlayerState, PlayerStatePayload{
		PlayerID:     p.ID,
		Cash:         p.Cash,
		Holdings:     holdings,
		PendingClose: pending,
	})
}

func instrumentsToInts(list []domain.Instrument) []int {
	out := make([]int, len(list))
	for i, inst := range list {
		out[i] = int(inst)
	}
	return out
}

func charactersToInts(list []domain.CharacterNumber) []int {
	out := make([]int, len(list))
	for i, n := range list {
		out[i] = int(n)
	}
	return out
}
