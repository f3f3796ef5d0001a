package userservice

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by both access and refresh tokens. The
// token itself is opaque to callers; only VerifyAccessToken resolves it.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func signToken(u *User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func newTokenPair(u *User, cfg TokenConfig) (*TokenPair, error) {
	access, err := signToken(u, cfg.AccessSecret, cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("could not sign access token: %w", err)
	}

	refresh, err := signToken(u, cfg.RefreshSecret, cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("could not sign refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func parseToken(tokenStr, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// VerifyAccessToken resolves a bearer token to the caller identity. Any
// parse or validation failure (expired, malformed, bad signature) is
// returned to the caller verbatim for the 401 response.
func (s *UserService) VerifyAccessToken(tokenStr string) (*Identity, error) {
	claims, err := parseToken(tokenStr, s.tok.AccessSecret)
	if err != nil {
		return nil, err
	}

	return &Identity{ID: claims.UserID, Username: claims.Username}, nil
}
