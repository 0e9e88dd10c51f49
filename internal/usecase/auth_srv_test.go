package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reg, err := f.svc.Auth.Register(ctx, &request.RegisterRequest{
		Username: "maria",
		Email:    "Maria@Example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", reg.Email)
	assert.Equal(t, entity.RoleGuest, reg.Role)
	assert.NotEmpty(t, reg.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), reg.ExpiresAt, time.Minute)

	byEmail, err := f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "MARIA@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, byEmail.UserID)
	assert.NotEqual(t, reg.Token, byEmail.Token)

	byName, err := f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "maria", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, byName.UserID)

	_, err = f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "maria", Password: "wrong-pass"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "nobody", Password: "whatever"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestRegister_Duplicates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Auth.Register(ctx, &request.RegisterRequest{Username: "fresh", Email: "guest@example.com", Password: "password1"})
	assert.True(t, errors.Is(err, ErrEmailTaken))

	_, err = f.svc.Auth.Register(ctx, &request.RegisterRequest{Username: "guest", Email: "fresh@example.com", Password: "password1"})
	assert.True(t, errors.Is(err, ErrUsernameTaken))

	_, err = f.svc.Auth.Register(ctx, &request.RegisterRequest{Username: "x", Email: "not-an-email", Password: "123"})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestLogin_InactiveAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reg, err := f.svc.Auth.Register(ctx, &request.RegisterRequest{Username: "gone", Email: "gone@example.com", Password: "password1"})
	require.NoError(t, err)
	f.st.users[uuid.MustParse(reg.UserID)].IsActive = false

	_, err = f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "gone", Password: "password1"})
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestLogout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reg, err := f.svc.Auth.Register(ctx, &request.RegisterRequest{Username: "leaving", Email: "leaving@example.com", Password: "password1"})
	require.NoError(t, err)
	token := uuid.MustParse(reg.Token)

	session, _ := f.repo.Session.FindValidSession(ctx, token)
	require.NotNil(t, session)

	require.NoError(t, f.svc.Auth.Logout(ctx, reg.Token))
	session, _ = f.repo.Session.FindValidSession(ctx, token)
	assert.Nil(t, session)

	assert.True(t, errors.Is(f.svc.Auth.Logout(ctx, "garbage"), ErrUnauthorized))
}

func TestCleanExpiredSessions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	expired := &entity.Session{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now().Add(-48 * time.Hour)},
		UserID:     f.guest.ID,
		Token:      uuid.New(),
		ExpiresAt:  time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.repo.Session.Create(ctx, expired))

	n, err := f.svc.Auth.CleanExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, f.st.sessions)
}

func TestGetProfile(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.User.GetProfile(context.Background(), f.host)
	require.NoError(t, err)
	assert.Equal(t, "host", resp.Username)
	assert.Equal(t, entity.RoleHost, resp.Role)

	_, err = f.svc.User.GetProfile(context.Background(), utils.Actor{ID: uuid.New(), Role: "guest"})
	assert.True(t, errors.Is(err, ErrUserNotFound))
}
