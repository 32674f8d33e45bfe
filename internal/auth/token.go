package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/community-tickets/internal/domain"
)

// TokenManager validates actor tokens minted by the chat gateway. The
// gateway authenticates members against the platform and forwards a
// signed snapshot of their identity, roles and capabilities.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes the actor token payload.
type Claims struct {
	Username       string   `json:"username"`
	Roles          []string `json:"roles,omitempty"`
	Administrator  bool     `json:"administrator,omitempty"`
	ManageChannels bool     `json:"manage_channels,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an actor token. Used by the gateway side and by
// integration tooling.
func (tm *TokenManager) GenerateToken(actor domain.Actor) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &Claims{
		Username:       actor.Username,
		Roles:          actor.Roles,
		Administrator:  actor.Administrator,
		ManageChannels: actor.ManageChannels,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates a token and returns the actor it describes.
func (tm *TokenManager) ParseToken(tokenStr string) (*domain.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return &domain.Actor{
		ID:             claims.Subject,
		Username:       claims.Username,
		Roles:          claims.Roles,
		Administrator:  claims.Administrator,
		ManageChannels: claims.ManageChannels,
	}, nil
}
