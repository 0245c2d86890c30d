package bot

import (
	"fmt"
	"math/rand"
	"testing"

	"stockraid/internal/app"
	"stockraid/internal/config"
)

func newStartedEngine(t *testing.T, n int, seed int64) *app.Engine {
	t.Helper()
	e := app.NewEngine(config.Default(), rand.New(rand.NewSource(seed)))
	for i := 1; i <= n; i++ {
		if err := e.AddPlayer(fmt.Sprintf("p%d", i), "x"); err != nil {
			t.Fatalf("add player: %v", err)
		}
	}
	if _, err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return e
}

func TestIsBot(t *testing.T) {
	tests := []struct {
		userID string
		want   bool
	}{
		{userID: "bot-0", want: true},
		{userID: "bot-12", want: true},
		{userID: "user-1", want: false},
		{userID: "", want: false},
	}
	for _, tt := range tests {
		if got := IsBot(tt.userID); got != tt.want {
			t.Errorf("IsBot(%q) = %v, want %v", tt.userID, got, tt.want)
		}
	}
}

func TestBotIdentityRoundTrip(t *testing.T) {
	id := GetBotIdentity(2)
	if !IsBot(id.UserID) {
		t.Fatalf("identity %s not recognized as bot", id.UserID)
	}
	if got := GetBotUsername(id.UserID); got != id.Username {
		t.Fatalf("username = %s, want %s", got, id.Username)
	}
	if got := GetBotUsername("user-3"); got != "" {
		t.Fatalf("human lookup = %q, want empty", got)
	}
}

func TestFallbackConfirmsFirstCharacter(t *testing.T) {
	e := newStartedEngine(t, 3, 1)
	p := e.Pending()
	if p == nil || p.Kind != app.ReqCharacterPick {
		t.Fatalf("pending = %+v, want character pick", p)
	}

	action, ok := Fallback(e)
	if !ok {
		t.Fatal("fallback produced nothing")
	}
	if action.Kind != ActionConfirmCharacter {
		t.Fatalf("kind = %d, want confirm character", action.Kind)
	}
	if action.Number != p.Candidates[0] {
		t.Fatalf("number = %d, want first candidate %d", action.Number, p.Candidates[0])
	}
	if _, err := e.ConfirmCharacter(p.Actor, action.Number); err != nil {
		t.Fatalf("fallback action rejected: %v", err)
	}
}

func TestFallbackEndsTurnInMainPhase(t *testing.T) {
	e := newStartedEngine(t, 3, 2)
	for e.Pending().Kind == app.ReqCharacterPick {
		p := e.Pending()
		if _, err := e.ConfirmCharacter(p.Actor, p.Candidates[0]); err != nil {
			t.Fatalf("confirm: %v", err)
		}
	}

	action, ok := Fallback(e)
	if !ok || action.Kind != ActionEndTurn {
		t.Fatalf("action = %+v ok=%v, want end turn", action, ok)
	}
}

func TestFallbackBidPicksCheapestSlot(t *testing.T) {
	e := newStartedEngine(t, 3, 3)
	// Drive round one to completion so bidding opens.
	for i := 0; i < 100; i++ {
		p := e.Pending()
		if p == nil {
			t.Fatal("engine stalled")
		}
		if p.Kind == app.ReqBid {
			break
		}
		var err error
		switch p.Kind {
		case app.ReqCharacterPick:
			_, err = e.ConfirmCharacter(p.Actor, p.Candidates[0])
		case app.ReqTurnAction:
			_, err = e.EndTurn(p.Actor)
		default:
			t.Fatalf("unexpected request kind %d", p.Kind)
		}
		if err != nil {
			t.Fatalf("drive: %v", err)
		}
	}

	p := e.Pending()
	if p.Kind != app.ReqBid {
		t.Fatal("bidding never opened")
	}
	action, ok := Fallback(e)
	if !ok || action.Kind != ActionSubmitBid {
		t.Fatalf("action = %+v ok=%v, want submit bid", action, ok)
	}

	amounts := e.BidSlotAmounts()
	for _, c := range p.Candidates {
		if amounts[c] < amounts[action.Slot] {
			t.Fatalf("slot %d (amount %d) is cheaper than chosen %d (amount %d)",
				c, amounts[c], action.Slot, amounts[action.Slot])
		}
	}
}

func TestPlayAnswersOnlyOwnRequests(t *testing.T) {
	e := newStartedEngine(t, 3, 4)
	actor := e.Pending().Actor
	other := "p1"
	if other == actor {
		other = "p2"
	}

	stranger := NewAgent(other, "x", rand.New(rand.NewSource(1)))
	if _, ok := stranger.Play(e); ok {
		t.Fatal("agent answered a request for another seat")
	}

	agent := NewAgent(actor, "x", rand.New(rand.NewSource(1)))
	action, ok := agent.Play(e)
	if !ok || action.Kind != ActionConfirmCharacter {
		t.Fatalf("action = %+v ok=%v, want confirm character", action, ok)
	}
	if _, err := e.ConfirmCharacter(actor, action.Number); err != nil {
		t.Fatalf("agent pick rejected: %v", err)
	}
}
