package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/faiznutes/Tumbas-sub001/internal/common"
	"github.com/faiznutes/Tumbas-sub001/internal/db"
)

type fakeAccounts struct {
	byEmail map[string]db.User
	byID    map[string]db.User
	nextID  int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]db.User{}, byID: map[string]db.User{}}
}

func (f *fakeAccounts) CreateUser(_ context.Context, email, passwordHash, name string, roles []string) (db.User, error) {
	if _, exists := f.byEmail[email]; exists {
		return db.User{}, db.ErrDuplicate
	}
	f.nextID++
	user := db.User{
		ID:           "user-" + string(rune('0'+f.nextID)),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Roles:        roles,
		CreatedAt:    time.Now(),
	}
	f.byEmail[email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeAccounts) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	return user, nil
}

func (f *fakeAccounts) GetUserByID(_ context.Context, id string) (db.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	return user, nil
}

func newAuthService(t *testing.T) (*Service, *fakeAccounts) {
	t.Helper()
	accounts := newFakeAccounts()
	svc, err := NewService(Config{Queries: accounts, Secret: "test-secret-0123456789"})
	require.NoError(t, err)
	return svc, accounts
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	user, err := svc.Register(context.Background(), "Budi", "Budi@Example.com", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "budi@example.com", user.Email)
	require.Equal(t, []string{"customer"}, user.Roles)

	result, err := svc.Login(context.Background(), "budi@example.com", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)

	subject, roles, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, subject)
	require.Equal(t, []string{"customer"}, roles)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), "Budi", "budi@example.com", "supersecret")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "Budi", "budi@example.com", "supersecret")

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "EMAIL_ALREADY_USED", appErr.Code)
	require.Equal(t, 409, appErr.HTTPStatus)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "Budi", "budi@example.com", "supersecret")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "budi@example.com", "not-the-password")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "Budi", "budi@example.com", "short")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestParseAccessTokenExpired(t *testing.T) {
	svc, accounts := newAuthService(t)
	_, err := accounts.CreateUser(context.Background(), "budi@example.com", "hash", "Budi", []string{"customer"})
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return past })
	token, _, err := svc.signAccessToken("user-1", []string{"customer"})
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, _, err = svc.ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseAccessTokenGarbage(t *testing.T) {
	svc, _ := newAuthService(t)
	_, _, err := svc.ParseAccessToken("not.a.token")
	require.Error(t, err)
}

func TestAdminRoleCarriedInToken(t *testing.T) {
	svc, accounts := newAuthService(t)
	admin, err := accounts.CreateUser(context.Background(), "admin@example.com", "", "Admin", []string{"customer", RoleAdmin})
	require.NoError(t, err)

	token, _, err := svc.signAccessToken(admin.ID, admin.Roles)
	require.NoError(t, err)
	_, roles, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Contains(t, roles, RoleAdmin)
}
