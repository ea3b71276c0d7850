package service

import (
	"context"
	"testing"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.users.Signup(ctx, SignupInput{Email: "A@X.com", Password: "hunter22", Name: "Asha"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.True(t, res.User.Preferences.Notifications)

	_, err = f.users.Signup(ctx, SignupInput{Email: "a@x.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.users.Signup(ctx, SignupInput{Email: "c@x.com", Password: "short"})
	assert.Contains(t, domain.GetValidationFields(err), "password")

	login, err := f.users.Login(ctx, LoginInput{Email: "a@x.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
	assert.False(t, login.User.LastLogin.IsZero())
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Signup(ctx, SignupInput{Email: "a@x.com", Password: "hunter22"})
	require.NoError(t, err)
	_, err = f.users.Login(ctx, LoginInput{Email: "g@x.com", GoogleID: "g-1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   LoginInput
		wantErr error
	}{
		{"unknown user", LoginInput{Email: "nobody@x.com", Password: "hunter22"}, ErrInvalidCredentials},
		{"wrong password", LoginInput{Email: "a@x.com", Password: "hunter23"}, ErrInvalidCredentials},
		{"google account with password", LoginInput{Email: "g@x.com", Password: "hunter22"}, ErrExternalAccount},
		{"different google id", LoginInput{Email: "g@x.com", GoogleID: "g-2"}, ErrGoogleIDMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Login(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = f.users.Login(ctx, LoginInput{Email: "a@x.com"})
	assert.Contains(t, domain.GetValidationFields(err), "password")
}

func TestLogin_GoogleCreatesAccountOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.users.Login(ctx, LoginInput{Email: "g@x.com", GoogleID: "g-1", Name: "Gita"})
	require.NoError(t, err)
	second, err := f.users.Login(ctx, LoginInput{Email: "g@x.com", GoogleID: "g-1"})
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "Gita", second.User.Name)
	assert.False(t, second.User.HasPassword())
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "a@x.com")

	got, err := f.users.UpdateProfile(asUser(u), u.ID, UpdateProfileInput{
		Name:         "Asha",
		Phone:        "98400",
		Preferences:  &domain.Preferences{DarkMode: true},
		ProfileImage: "https://cdn.example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, "98400", got.Phone)
	assert.True(t, got.Preferences.DarkMode)
	assert.Equal(t, "https://cdn.example.com/a.png", got.ProfileImage)
	require.NotNil(t, got.LastUpdated)

	_, err = f.users.UpdateProfile(context.Background(), "missing", UpdateProfileInput{Name: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.users.Signup(ctx, SignupInput{Email: "a@x.com", Password: "hunter22"})
	require.NoError(t, err)
	id := res.User.ID

	err = f.users.ChangePassword(ctx, id, ChangePasswordInput{CurrentPassword: "wrong-one", NewPassword: "hunter33"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = f.users.ChangePassword(ctx, id, ChangePasswordInput{CurrentPassword: "hunter22", NewPassword: "short"})
	assert.Contains(t, domain.GetValidationFields(err), "newPassword")

	require.NoError(t, f.users.ChangePassword(ctx, id, ChangePasswordInput{CurrentPassword: "hunter22", NewPassword: "hunter33"}))
	_, err = f.users.Login(ctx, LoginInput{Email: "a@x.com", Password: "hunter33"})
	assert.NoError(t, err)

	g, err := f.users.Login(ctx, LoginInput{Email: "g@x.com", GoogleID: "g-1"})
	require.NoError(t, err)
	err = f.users.ChangePassword(ctx, g.User.ID, ChangePasswordInput{CurrentPassword: "anything", NewPassword: "hunter33"})
	assert.ErrorIs(t, err, ErrPasswordChangeDenied)
}

func TestDeleteAccountAndExport(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)
	ctx := context.Background()
	u := f.seedUser(t, "a@x.com")

	_, err := f.checkout.CreateOrder(ctx, panOrderInput("a@x.com", domain.DeliveryStandard, "1600"))
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, "a@x.com", panItem(1))
	require.NoError(t, err)

	export, err := f.users.ExportData(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, export.ExportedBy)
	assert.Len(t, export.Orders, 1)

	require.NoError(t, f.users.DeleteAccount(ctx, u.ID))
	_, err = f.users.GetProfile(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.store.Carts.Get(ctx, "a@x.com")
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))

	assert.ErrorIs(t, f.users.DeleteAccount(ctx, u.ID), ErrUserNotFound)
}
