package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkashyap/storefront/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.GenerateToken(42, models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	session, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, 42, session.UserID)
	assert.Equal(t, models.RoleAdmin, session.Role)
	assert.True(t, session.IsStaff())
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := NewManager("secret-a").GenerateToken(1, models.RoleCustomer, time.Hour)
	require.NoError(t, err)

	_, err = NewManager("secret-b").Parse(token)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestParse_ExpiredToken(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.GenerateToken(1, models.RoleCustomer, -time.Minute)
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestParse_Garbage(t *testing.T) {
	_, err := NewManager("test-secret").Parse("not-a-token")
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestIsStaff(t *testing.T) {
	assert.False(t, Session{Role: models.RoleCustomer}.IsStaff())
	assert.True(t, Session{Role: models.RoleAdmin}.IsStaff())
}
