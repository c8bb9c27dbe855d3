package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inflection-rewards/models"
)

func TestLoginIsUpsertByIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.users.Login(ctx, "dyn-1", LoginInput{Name: "Ada", Phone: "+100"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, first.Role)

	again, err := f.users.Login(ctx, "dyn-1", LoginInput{Name: "Someone else", Phone: "+100"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Ada", again.Name)
	assert.Equal(t, int64(1), f.count(t, &models.User{}))

	_, err = f.users.Login(ctx, "dyn-2", LoginInput{Name: "Copycat", Phone: "+100"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestWalletAddressIsChecksummed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lower := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	u, err := f.users.Login(ctx, "dyn-1", LoginInput{Phone: "+100", WalletAddress: &lower})
	require.NoError(t, err)
	require.NotNil(t, u.WalletAddress)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", *u.WalletAddress)

	bad := "0x1234"
	_, err = f.users.UpdateMe(ctx, u.ID, UpdateUserInput{WalletAddress: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	empty := ""
	u, err = f.users.UpdateMe(ctx, u.ID, UpdateUserInput{WalletAddress: &empty, Name: strPtr("Ada")})
	require.NoError(t, err)
	assert.Nil(t, u.WalletAddress)
	assert.Equal(t, "Ada", u.Name)
}

func TestOwnedAppsAndIssuedRewards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "dyn-alice", "+100")
	bob := f.user(t, "dyn-bob", "+200")
	games := f.category(t, "games")
	f.app(t, alice, games, "x")
	f.app(t, alice, games, "y")

	apps, err := f.users.ListOwnedApps(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	apps, err = f.users.ListOwnedApps(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, apps)

	issued, err := f.users.ListIssuedRewards(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, issued)
}

func TestUpdateMeRejectsBlankPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "dyn-1", "+100")

	_, err := f.users.UpdateMe(ctx, u.ID, UpdateUserInput{Phone: strPtr("  ")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "+100", got.Phone)
}
