package bot

import "fmt"

var botNames = []string{
	"Marge Inn",
	"Bill Lowe",
	"Sal Short",
	"Pen Stock",
	"Div Dendt",
	"Flo Tation",
}

// Identity is a stable bot seat identity.
type Identity struct {
	UserID   string
	Username string
}

// GetBotIdentity returns the identity used for the given seat index.
func GetBotIdentity(seat int) Identity {
	name := botNames[seat%len(botNames)]
	return Identity{
		UserID:   fmt.Sprintf("%s%d", botIDPrefix, seat),
		Username: name,
	}
}

// GetBotUsername resolves a bot user id to its display name, or "" for
// non-bot ids.
func GetBotUsername(userID string) string {
	if !IsBot(userID) {
		return ""
	}
	var seat int
	if _, err := fmt.Sscanf(userID, botIDPrefix+"%d", &seat); err != nil {
		return ""
	}
	return botNames[seat%len(botNames)]
}
