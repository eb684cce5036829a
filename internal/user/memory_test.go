package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialgate/internal/oauth"
)

func googleData(email string) *oauth.UserData {
	return &oauth.UserData{
		Email:      email,
		FirstName:  "Jane",
		LastName:   "Doe",
		Provider:   "google",
		ProviderID: "g-1",
		AvatarURL:  "https://img.test/a.png",
	}
}

func TestCreateOrUpdate_NewAccount(t *testing.T) {
	ctx := context.Background()
	m := NewMemManager()

	acc, created, err := m.CreateOrUpdate(ctx, googleData("jane@example.com"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "jane@example.com", acc.Email)
	assert.Equal(t, "Jane Doe", acc.DisplayName)
	assert.NotEqual(t, acc.ID.String(), "00000000-0000-0000-0000-000000000000")

	ids, err := m.Identities(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, "google", ids[0].Provider)
}

func TestCreateOrUpdate_ExistingAccountRefreshesProfile(t *testing.T) {
	ctx := context.Background()
	m := NewMemManager()

	first, created, err := m.CreateOrUpdate(ctx, googleData("jane@example.com"))
	require.NoError(t, err)
	require.True(t, created)

	updated := googleData("jane@example.com")
	updated.AvatarURL = "https://img.test/new.png"

	second, created, err := m.CreateOrUpdate(ctx, updated)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "https://img.test/new.png", second.AvatarURL)
}

func TestCreateOrUpdate_LinksSecondProvider(t *testing.T) {
	ctx := context.Background()
	m := NewMemManager()

	acc, _, err := m.CreateOrUpdate(ctx, googleData("jane@example.com"))
	require.NoError(t, err)

	fb := googleData("jane@example.com")
	fb.Provider = "facebook"
	fb.ProviderID = "fb-7"

	acc2, created, err := m.CreateOrUpdate(ctx, fb)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, acc.ID, acc2.ID)

	ids, err := m.Identities(ctx, acc.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestFindByEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemManager()

	_, err := m.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = m.CreateOrUpdate(ctx, googleData("jane@example.com"))
	require.NoError(t, err)

	acc, err := m.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", acc.Email)
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "ja***@example.com", maskEmail("jane@example.com"))
	assert.Equal(t, "***", maskEmail("a"))
	assert.Equal(t, "ab***", maskEmail("ab@x")[:5])
}
