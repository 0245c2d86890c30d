package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"stockraid/internal/app"
	"stockraid/internal/bot"
	"stockraid/internal/config"
	"stockraid/internal/domain"
	"stockraid/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const maxSeats = 6

// MatchState holds the authoritative runtime state for the Nakama match
// handler: the lobby seats plus the rules engine once a game is running.
type MatchState struct {
	Seats     [maxSeats]string            `json:"seats"`
	OwnerSeat int                         `json:"owner_seat"`
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"`

	Engine *app.Engine        `json:"-"`
	Cfg    *config.GameConfig `json:"-"`

	BotsEnabled          bool                  `json:"bots_enabled"`
	Bots                 map[string]*bot.Agent `json:"-"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`

	// PendingKey fingerprints the engine's current suspension point;
	// PendingDeadline is the tick at which the stall policy kicks in.
	PendingKey      string `json:"pending_key"`
	PendingDeadline int64  `json:"pending_deadline"`

	Economy ports.EconomyPort `json:"-"`
}

func (ms *MatchState) openSeatCount() int {
	count := 0
	for _, s := range ms.Seats {
		if s == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) occupiedSeatCount() int {
	return maxSeats - ms.openSeatCount()
}

func (ms *MatchState) humanCount() int {
	count := 0
	for _, s := range ms.Seats {
		if s != "" && !bot.IsBot(s) {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) int {
	for i, s := range ms.Seats {
		if s == userID {
			return i
		}
	}
	return -1
}

func findFirstHumanSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" && !bot.IsBot(userID) {
			return i
		}
	}
	return -1
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// matchLabel is the JSON label the matchmaker queries.
type matchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

var eventOpCodes = map[app.EventKind]int64{
	app.EventGameStarted:           OpEvtGameStarted,
	app.EventPhaseChanged:          OpEvtPhaseChanged,
	app.EventFaceUpDiscards:        OpEvtFaceUpDiscards,
	app.EventJackpotGrown:          OpEvtJackpotGrown,
	app.EventBidTurn:               OpEvtBidTurn,
	app.EventBidPlaced:             OpEvtBidPlaced,
	app.EventSelectionTurn:         OpEvtSelectionTurn,
	app.EventCharacterOptions:      OpEvtCharacterOptions,
	app.EventCharacterChosen:       OpEvtCharacterChosen,
	app.EventTurnBegan:             OpEvtTurnBegan,
	app.EventTurnEnded:             OpEvtTurnEnded,
	app.EventBought:                OpEvtBought,
	app.EventSold:                  OpEvtSold,
	app.EventCloseSellQueued:       OpEvtCloseSellQueued,
	app.EventUndone:                OpEvtUndone,
	app.EventPriceChanged:          OpEvtPriceChanged,
	app.EventBankruptcy:            OpEvtBankruptcy,
	app.EventCeiling:               OpEvtCeiling,
	app.EventPlayerState:           OpEvtPlayerState,
	app.EventAbilityUsed:           OpEvtAbilityUsed,
	app.EventAbilityBlocked:        OpEvtAbilityBlocked,
	app.EventAbilityCancelled:      OpEvtAbilityCancelled,
	app.EventAskCharacterTarget:    OpEvtAskCharacterTarget,
	app.EventAskInstrument:         OpEvtAskInstrument,
	app.EventAskManipulationChoice: OpEvtAskManipChoice,
	app.EventAskConfirmTarget:      OpEvtAskConfirmTarget,
	app.EventAskGamble:             OpEvtAskGamble,
	app.EventManipulationPeek:      OpEvtManipPeek,
	app.EventJackpotClaimed:        OpEvtJackpotClaimed,
	app.EventThiefPaid:             OpEvtThiefPaid,
	app.EventManipulationRevealed:  OpEvtManipulationRevealed,
	app.EventCloseSellPaid:         OpEvtCloseSellPaid,
	app.EventTaxCollected:          OpEvtTaxCollected,
	app.EventRoundEnded:            OpEvtRoundEnded,
	app.EventGameEnded:             OpEvtGameEnded,
	app.EventNotice:                OpEvtNotice,
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: initializing match handler")

	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: could not load game config: %v", err)
	}
	cfg := config.GetGameConfig()

	state := &MatchState{
		OwnerSeat: -1,
		Tick:      time.Now().Unix(),
		Presences: make(map[string]runtime.Presence),
		Cfg:       cfg,
		Bots:      make(map[string]*bot.Agent),
		Economy:   NewNakamaEconomyAdapter(nk),
	}

	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["stockraid_bots_enabled"]; ok {
			state.BotsEnabled = val == "true"
		}
	}

	tickRate := 1
	return state, tickRate, mh.labelString(state, logger)
}

func (mh *matchHandler) labelString(state *MatchState, logger runtime.Logger) string {
	phase := "lobby"
	if state.Engine != nil {
		phase = "playing"
	}
	label := matchLabel{
		Open:  state.openSeatCount(),
		Game:  "stockraid",
		Phase: phase,
	}
	bytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("labelString: failed to marshal label: %v", err)
		return ""
	}
	return string(bytes)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(mh.labelString(state, logger)); err != nil {
		logger.Error("updateLabel: failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// A seated player reconnecting mid-game gets their seat back; the
	// deadline policy only covers them while they are away.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}

	if matchState.openSeatCount() <= 0 {
		hasBot := false
		if matchState.Engine == nil {
			for _, seat := range matchState.Seats {
				if bot.IsBot(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "match full"
		}
	}

	if matchState.Engine != nil {
		return state, false, "game in progress"
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		if matchState.seatOf(p.GetUserId()) >= 0 {
			// Reconnecting player, seat already held.
			continue
		}

		assigned := false
		for i, seatUserID := range matchState.Seats {
			if seatUserID == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				break
			}
		}

		if !assigned && matchState.Engine == nil {
			for i, seatUserID := range matchState.Seats {
				if bot.IsBot(seatUserID) {
					logger.Info("MatchJoin: replacing bot %s with human %s in seat %d", seatUserID, p.GetUserId(), i)
					delete(matchState.Bots, seatUserID)
					matchState.Seats[i] = p.GetUserId()
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: user %s joined but no seat was available", p.GetUserId())
		}
	}

	if matchState.OwnerSeat < 0 || !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobbyState(matchState, dispatcher, logger)
	return matchState
}

func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userID := seats[seatIndex]
	return userID != "" && !bot.IsBot(userID)
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		if matchState.Engine == nil {
			// Lobby leave frees the seat. During a game the seat stays
			// bound: the deadline policy plays the absentee's turns.
			for i, seatUserID := range matchState.Seats {
				if seatUserID == p.GetUserId() {
					matchState.Seats[i] = ""
					break
				}
			}
		}
	}

	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
	}

	if findFirstHumanSeat(matchState.Seats[:]) == -1 && len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: terminating match with no humans")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobbyState(matchState, dispatcher, logger)
	return matchState
}

type lobbySeatView struct {
	UserID      string `json:"user_id"`
	Seat        int    `json:"seat"`
	DisplayName string `json:"display_name"`
	IsOwner     bool   `json:"is_owner"`
	IsBot       bool   `json:"is_bot"`
}

func (mh *matchHandler) broadcastLobbyState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	var seats []lobbySeatView
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		displayName := userID
		if p, exists := state.Presences[userID]; exists {
			displayName = p.GetUsername()
		} else if name := bot.GetBotUsername(userID); name != "" {
			displayName = name
		}
		seats = append(seats, lobbySeatView{
			UserID:      userID,
			Seat:        i,
			DisplayName: displayName,
			IsOwner:     i == state.OwnerSeat,
			IsBot:       bot.IsBot(userID),
		})
	}
	payload, err := json.Marshal(map[string]interface{}{"seats": seats})
	if err != nil {
		logger.Error("broadcastLobbyState: marshal failed: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpEvtLobbyState, payload, nil, nil, true)
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(ctx, matchState, dispatcher, logger, msg)
	}

	if matchState.BotsEnabled {
		mh.autoFillLobby(matchState, dispatcher, logger)
	}
	mh.driveStalledInput(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	if msg.GetOpCode() == OpStartGame {
		mh.handleStartGame(ctx, state, dispatcher, logger, senderID)
		return
	}

	if state.Engine == nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game has not started")
		return
	}

	events, err := mh.dispatchAction(state, senderID, msg.GetOpCode(), msg.GetData())
	if err != nil {
		logger.Debug("handleMessage: user %s op %d rejected: %v", senderID, msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	mh.afterEngineEvents(ctx, state, dispatcher, logger, events)
}

type instrumentMsg struct {
	Instrument int `json:"instrument"`
}

type sellMsg struct {
	Instrument int  `json:"instrument"`
	Open       bool `json:"open"`
}

type slotMsg struct {
	Slot int `json:"slot"`
}

type numberMsg struct {
	Number int `json:"number"`
}

type indexMsg struct {
	Index int `json:"index"`
}

type acceptMsg struct {
	Accept bool `json:"accept"`
}

type countMsg struct {
	Count int `json:"count"`
}

func (mh *matchHandler) dispatchAction(state *MatchState, senderID string, opCode int64, data []byte) ([]app.Event, error) {
	eng := state.Engine
	switch opCode {
	case OpSubmitBid:
		var m slotMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.SubmitBid(senderID, m.Slot)
	case OpConfirmCharacter:
		var m numberMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.ConfirmCharacter(senderID, m.Number)
	case OpBuy:
		var m instrumentMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.Buy(senderID, domain.Instrument(m.Instrument))
	case OpSell:
		var m sellMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.Sell(senderID, domain.Instrument(m.Instrument), m.Open)
	case OpUseAbility:
		return eng.UseAbility(senderID)
	case OpUndo:
		return eng.Undo(senderID)
	case OpEndTurn:
		return eng.EndTurn(senderID)
	case OpChooseInstrument:
		var m instrumentMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.ChooseInstrument(senderID, domain.Instrument(m.Instrument))
	case OpChooseCharacterTarget:
		var m numberMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.ChooseCharacterTarget(senderID, m.Number)
	case OpChooseManipulation:
		var m indexMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.ChooseManipulation(senderID, m.Index)
	case OpConfirmTarget:
		var m acceptMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.ConfirmTarget(senderID, m.Accept)
	case OpConfirmGamble:
		var m countMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return eng.ConfirmGamble(senderID, m.Count)
	case OpCancelAbility:
		return eng.CancelAbility(senderID)
	default:
		return nil, fmt.Errorf("unknown opcode %d", opCode)
	}
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	if state.Engine != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game already started")
		return
	}
	if state.seatOf(senderID) != state.OwnerSeat {
		logger.Warn("handleStartGame: user %s is not the owner", senderID)
		mh.sendError(state, dispatcher, logger, senderID, 403, "only the table owner can start")
		return
	}
	if state.occupiedSeatCount() < state.Cfg.MinPlayers {
		mh.sendError(state, dispatcher, logger, senderID, 400,
			fmt.Sprintf("need at least %d players", state.Cfg.MinPlayers))
		return
	}

	eng := app.NewEngine(state.Cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
	for _, userID := range state.Seats {
		if userID == "" {
			continue
		}
		displayName := userID
		if p, exists := state.Presences[userID]; exists {
			displayName = p.GetUsername()
		} else if name := bot.GetBotUsername(userID); name != "" {
			displayName = name
		}
		if err := eng.AddPlayer(userID, displayName); err != nil {
			logger.Error("handleStartGame: %v", err)
			mh.sendError(state, dispatcher, logger, senderID, 500, "failed to seat players")
			return
		}
	}

	events, err := eng.Start()
	if err != nil {
		logger.Error("handleStartGame: failed to start: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	state.Engine = eng
	mh.updateLabel(state, dispatcher, logger)
	mh.afterEngineEvents(ctx, state, dispatcher, logger, events)
	logger.Info("handleStartGame: game started with %d players", state.occupiedSeatCount())
}

// afterEngineEvents broadcasts the engine's output and rearms the pending
// deadline when the suspension point moved.
func (mh *matchHandler) afterEngineEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	mh.rearmDeadline(state)
}

func (mh *matchHandler) rearmDeadline(state *MatchState) {
	if state.Engine == nil {
		state.PendingKey = ""
		return
	}
	p := state.Engine.Pending()
	if p == nil {
		state.PendingKey = ""
		return
	}
	key := fmt.Sprintf("%d:%s:%d", p.Kind, p.Actor, len(p.Candidates))
	if key != state.PendingKey {
		state.PendingKey = key
		state.PendingDeadline = state.Tick + int64(state.Cfg.TurnDurationSeconds)
		state.BotWaitUntil = 0
	}
}

// driveStalledInput implements the stall policy: bot seats answer after a
// short delay, and any seat (human included) that blows the decision
// deadline gets the conservative fallback response.
func (mh *matchHandler) driveStalledInput(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	eng := state.Engine
	if eng == nil {
		return
	}
	p := eng.Pending()
	if p == nil {
		return
	}

	var action bot.Action
	var ok bool

	if bot.IsBot(p.Actor) {
		if state.BotWaitUntil == 0 {
			delay := state.Cfg.BotMinDelaySeconds
			if state.Cfg.BotMaxDelaySeconds > delay {
				delay += rand.Intn(state.Cfg.BotMaxDelaySeconds - state.Cfg.BotMinDelaySeconds + 1)
			}
			state.BotWaitUntil = state.Tick + int64(delay)
			return
		}
		if state.Tick < state.BotWaitUntil {
			return
		}
		state.BotWaitUntil = 0
		agent, exists := state.Bots[p.Actor]
		if !exists {
			agent = bot.NewAgent(p.Actor, bot.GetBotUsername(p.Actor), nil)
			state.Bots[p.Actor] = agent
		}
		action, ok = agent.Play(eng)
	} else {
		if state.Tick < state.PendingDeadline {
			return
		}
		logger.Info("driveStalledInput: deadline expired for %s, applying fallback", p.Actor)
		action, ok = bot.Fallback(eng)
	}
	if !ok {
		return
	}

	events, err := mh.applyBotAction(eng, p.Actor, action)
	if err != nil {
		// A rejected guess (e.g. trade limit) degrades to ending the turn.
		logger.Debug("driveStalledInput: action rejected (%v), ending turn", err)
		events, err = eng.EndTurn(p.Actor)
		if err != nil {
			logger.Error("driveStalledInput: could not advance for %s: %v", p.Actor, err)
			return
		}
	}
	mh.afterEngineEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) applyBotAction(eng *app.Engine, actorID string, action bot.Action) ([]app.Event, error) {
	switch action.Kind {
	case bot.ActionSubmitBid:
		return eng.SubmitBid(actorID, action.Slot)
	case bot.ActionConfirmCharacter:
		return eng.ConfirmCharacter(actorID, action.Number)
	case bot.ActionBuy:
		return eng.Buy(actorID, action.Instrument)
	case bot.ActionEndTurn:
		return eng.EndTurn(actorID)
	case bot.ActionChooseInstrument:
		return eng.ChooseInstrument(actorID, action.Instrument)
	case bot.ActionChooseManipulation:
		return eng.ChooseManipulation(actorID, action.CardIndex)
	case bot.ActionConfirmGamble:
		return eng.ConfirmGamble(actorID, action.Count)
	case bot.ActionCancelAbility:
		return eng.CancelAbility(actorID)
	default:
		return nil, fmt.Errorf("no applicable action")
	}
}

// autoFillLobby adds bot seats when a single human has waited long enough.
func (mh *matchHandler) autoFillLobby(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Engine != nil {
		return
	}
	if state.humanCount() != 1 {
		state.LastSinglePlayerTick = 0
		return
	}
	if state.LastSinglePlayerTick == 0 {
		state.LastSinglePlayerTick = state.Tick
		return
	}
	if state.Tick-state.LastSinglePlayerTick < int64(state.Cfg.BotAutoFillDelaySeconds) {
		return
	}

	added := false
	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		if state.occupiedSeatCount() >= state.Cfg.MinPlayers+1 {
			break
		}
		identity := bot.GetBotIdentity(i)
		state.Seats[i] = identity.UserID
		state.Bots[identity.UserID] = bot.NewAgent(identity.UserID, identity.Username, nil)
		logger.Info("autoFillLobby: added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)
		added = true
	}
	state.LastSinglePlayerTick = 0
	if added {
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastLobbyState(state, dispatcher, logger)
	}
}

// broadcastEvent converts one engine event to its opcode and JSON payload
// and dispatches it, honoring the event's private recipient list.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, known := eventOpCodes[ev.Kind]
	if !known {
		logger.Warn("broadcastEvent: unknown event kind %v", ev.Kind)
		return
	}

	if ev.Kind == app.EventGameEnded {
		mh.settleGame(ctx, state, logger, ev)
	}

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("broadcastEvent: failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Targeted events whose recipients are offline or bots must not
		// leak to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, payload, recipients, nil, true)
}

// settleGame converts final cash to wallet currency for human players and
// returns the match to its lobby state.
func (mh *matchHandler) settleGame(ctx context.Context, state *MatchState, logger runtime.Logger, ev app.Event) {
	payload, ok := ev.Payload.(app.GameEndedPayload)
	if ok && state.Economy != nil {
		updates := make([]ports.WalletUpdate, 0, len(payload.Standings))
		for _, standing := range payload.Standings {
			if bot.IsBot(standing.PlayerID) || standing.Cash <= 0 {
				continue
			}
			updates = append(updates, ports.WalletUpdate{
				UserID: standing.PlayerID,
				Amount: int64(standing.Cash) * state.Cfg.PayoutRate,
				Metadata: map[string]interface{}{
					"match_id": ctx.Value(runtime.RUNTIME_CTX_MATCH_ID),
					"reason":   "game_settlement",
				},
			})
		}
		if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
			logger.Error("settleGame: failed to update balances: %v", err)
		}
	}
	state.Engine = nil
	state.PendingKey = ""
}

type errorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError delivers a rejection to a single user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	payload, err := json.Marshal(errorEvent{Code: code, Message: message})
	if err != nil {
		logger.Error("sendError: marshal failed: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpEvtError, payload, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
