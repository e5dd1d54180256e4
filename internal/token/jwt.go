package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"clubgate/pkg/platform/sentinel"
)

// Claims carries the gateway session reference. The upstream bearer token is
// never embedded in the cookie; it lives in the persisted identity store and
// is looked up through the session ID.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Service mints and validates the gateway session cookie token.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// Mint issues a signed session token for the given session ID.
func (s *Service) Mint(sessionID string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := t.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// SessionID validates the token and returns the session ID it references.
func (s *Service) SessionID(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("session token expired: %w", sentinel.ErrAuthRejected)
		}
		return "", fmt.Errorf("invalid session token: %w", sentinel.ErrAuthRejected)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session claims: %w", sentinel.ErrAuthRejected)
	}
	return claims.SessionID, nil
}
