package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quadsuit/pokerroom/internal/session"
)

const (
	tokenTTL = 7 * 24 * time.Hour

	// defaultChips is the cosmetic bankroll reported for new anonymous
	// users; real chips live per seat.
	defaultChips = 10000
)

// User is the authenticated identity returned by the auth endpoint.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	IsAnonymous bool   `json:"isAnonymous"`
	Chips       int    `json:"chips"`
}

// Auth issues and verifies the JWTs that bind a websocket to a user id.
// Client-supplied anonymous ids are honored for session continuity, but
// authorization always keys off the JWT-bound id.
type Auth struct {
	secret []byte
}

// NewAuth creates an authenticator. An empty secret gets a random one,
// which is fine for a single process.
func NewAuth(secret string) *Auth {
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("auth: randomness source failed: %v", err))
		}
		secret = hex.EncodeToString(buf)
	}
	return &Auth{secret: []byte(secret)}
}

type claims struct {
	Username  string `json:"username"`
	Anonymous bool   `json:"anonymous"`
	jwt.RegisteredClaims
}

// IssueAnonymous mints a token for an anonymous user. A client-provided
// id with the anon_ prefix is kept so reconnects preserve seat binding;
// anything else gets a fresh id.
func (a *Auth) IssueAnonymous(username, clientID string) (string, User, error) {
	userID := clientID
	if !session.IsAnonymous(userID) || len(userID) > 64 {
		userID = session.AnonymousPrefix + uuid.New().String()
	}
	if username == "" {
		username = "guest-" + userID[len(userID)-6:]
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username:  username,
		Anonymous: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", User{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, User{
		ID:          userID,
		Username:    username,
		IsAnonymous: true,
		Chips:       defaultChips,
	}, nil
}

// Verify parses and validates a token, returning the bound identity.
func (a *Auth) Verify(tokenString string) (userID, username string, err error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	if !token.Valid || c.Subject == "" {
		return "", "", fmt.Errorf("invalid token")
	}
	return c.Subject, c.Username, nil
}
