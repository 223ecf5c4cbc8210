package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarelabs/tour-marketplace/internal/auth"
	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

func TestManager_IssueVerify(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	userID := uuid.New()

	token, err := m.Issue(userID, true)
	require.NoError(t, err)

	gotID, isAdmin, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.True(t, isAdmin)
}

func TestManager_Verify_Expired(t *testing.T) {
	m := auth.NewManager("test-secret", -time.Minute)

	token, err := m.Issue(uuid.New(), false)
	require.NoError(t, err)

	_, _, err = m.Verify(token)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestManager_Verify_WrongSecret(t *testing.T) {
	token, err := auth.NewManager("secret-a", time.Hour).Issue(uuid.New(), false)
	require.NoError(t, err)

	_, _, err = auth.NewManager("secret-b", time.Hour).Verify(token)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestManager_Verify_Garbage(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	_, _, err := m.Verify("not.a.token")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("hunter22hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22hunter22", hash)

	assert.True(t, auth.CheckPassword(hash, "hunter22hunter22"))
	assert.False(t, auth.CheckPassword(hash, "wrong password"))
}

func TestNewResetToken(t *testing.T) {
	a, err := auth.NewResetToken()
	require.NoError(t, err)
	b, err := auth.NewResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
}
