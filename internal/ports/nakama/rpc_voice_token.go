package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"stockraid/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// rpcVoiceToken signs a voice chat access token for the calling user.
// Payload: {"action": "login" | "join", "match_id": "..."}
func rpcVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("No user ID in context", 16) // UNAUTHENTICATED
	}

	var req struct {
		Action  string `json:"action"`
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	issuer := env["voice_issuer"]
	secret := env["voice_secret"]
	domain := env["voice_domain"]

	if issuer == "" || secret == "" {
		issuer = "test-issuer"
		secret = "test-secret"
		logger.Warn("Voice credentials missing from env, using test defaults.")
	}
	if domain == "" {
		domain = "tla.vivox.com"
	}

	if req.Action == app.VoiceTokenActionJoin && req.MatchID == "" {
		return "", runtime.NewError("Match ID required for join", 3)
	}

	service := app.NewVoiceTokenService(secret, issuer, domain)
	token, err := service.GenerateToken(userID, req.Action, req.MatchID)
	if err != nil {
		logger.Error("Failed to generate voice token: %v", err)
		return "", runtime.NewError("Internal error", 13) // INTERNAL
	}

	res := map[string]string{"token": token}
	resBytes, _ := json.Marshal(res)
	return string(resBytes), nil
}
