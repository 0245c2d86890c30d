package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// VoiceTokenService signs access tokens for the table voice channels seated
// players join alongside a match.
type VoiceTokenService struct {
	secret string
	issuer string
	domain string
}

const (
	VoiceTokenActionLogin = "login"
	VoiceTokenActionJoin  = "join"
)

func NewVoiceTokenService(secret, issuer, domain string) *VoiceTokenService {
	return &VoiceTokenService{
		secret: secret,
		issuer: issuer,
		domain: domain,
	}
}

// GenerateToken issues an HS256 token for the given user and action. Join
// tokens additionally name the match whose channel is being entered.
func (s *VoiceTokenService) GenerateToken(user, action, matchID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("voice token service is nil")
	}
	if user == "" {
		return "", fmt.Errorf("user is required")
	}
	if s.secret == "" || s.issuer == "" || s.domain == "" {
		return "", fmt.Errorf("voice token config is incomplete")
	}

	userURI := s.userURI(user)
	targetURI, err := s.targetURI(action, matchID, userURI)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": user,
		"exp": time.Now().Add(time.Hour * 1).Unix(),
		"vxa": action,
		"vxi": fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Int63()),
		"f":   userURI,
		"t":   targetURI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *VoiceTokenService) userURI(user string) string {
	return "sip:." + s.issuer + "." + user + ".@" + s.domain
}

func (s *VoiceTokenService) channelURI(matchID string) string {
	return "sip:confctl-g-stockraid-" + matchID + "@" + s.domain
}

func (s *VoiceTokenService) targetURI(action, matchID, userURI string) (string, error) {
	switch action {
	case VoiceTokenActionLogin:
		return userURI, nil
	case VoiceTokenActionJoin:
		if matchID == "" {
			return "", fmt.Errorf("match id is required for join tokens")
		}
		return s.channelURI(matchID), nil
	default:
		return "", fmt.Errorf("unsupported voice token action: %s", action)
	}
}
