package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkashyap/storefront/internal/models"
)

var ErrAuthenticationRequired = errors.New("authentication required")

// Session is the request-scoped identity handed to handlers. It is
// carried on the request context, never in package state.
type Session struct {
	UserID int
	Role   string
}

func (s Session) IsStaff() bool {
	return s.Role == models.RoleAdmin
}

type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Manager verifies bearer tokens issued by the auth layer. Token
// issuance lives outside this service; GenerateToken exists for the
// auth layer and for tests.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

func (m *Manager) GenerateToken(userID int, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates the token and returns the session it carries.
func (m *Manager) Parse(tokenString string) (*Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAuthenticationRequired
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrAuthenticationRequired
	}

	return &Session{UserID: claims.UserID, Role: claims.Role}, nil
}
