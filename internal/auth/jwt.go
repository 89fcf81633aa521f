package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/calliq/insights-backend/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const defaultTokenTTL = 24 * time.Hour

type JWTService struct {
	hmacKey []byte
	ttl     time.Duration
}

func NewJWTService(hmacKey []byte) *JWTService {
	return &JWTService{
		hmacKey: hmacKey,
		ttl:     defaultTokenTTL,
	}
}

// Sign issues a bearer token for an authenticated user.
func (s *JWTService) Sign(userID, email, name, orgID string, role shared.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:         userID,
		Email:          email,
		Name:           name,
		OrganizationID: orgID,
		Role:           role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.hmacKey)
}

// Validate parses an Authorization header value ("Bearer <token>" or the bare
// token) and returns the verified claims.
func (s *JWTService) Validate(authHeader string) (*Claims, error) {
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.hmacKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
