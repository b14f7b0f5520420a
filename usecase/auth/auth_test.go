package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
)

var fastHash = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type memUsers struct {
	byID map[string]*domain.User
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	for _, u := range m.byID {
		if u.Email == user.Email || u.Username == user.Username {
			return domain.ErrUserExists
		}
	}
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) UpdateProfile(context.Context, *domain.User) error { return nil }

func newUseCase(t *testing.T) (*UseCase, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	uc := New(&memUsers{byID: map[string]*domain.User{}}, redisRepo.NewSessionRepository(client, time.Hour), Config{
		Secret:     "test-secret",
		Issuer:     "taskboard",
		SessionTTL: time.Hour,
		HashParams: fastHash,
	}, nil)
	return uc, mr
}

func register(t *testing.T, uc *UseCase) *Result {
	t.Helper()
	res, err := uc.Register(context.Background(), RegisterInput{
		Username: "jane",
		Email:    " Jane@Example.com ",
		Password: "hunter22",
	})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	uc, _ := newUseCase(t)
	res := register(t, uc)

	assert.Equal(t, "jane@example.com", res.User.Email)
	assert.NotEqual(t, "hunter22", res.User.PasswordHash)
	assert.NotEmpty(t, res.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, 5*time.Second)

	session, err := uc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, session.UserID)
}

func TestRegister_Validation(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.Register(context.Background(), RegisterInput{Username: "x", Email: "nope", Password: "123"})
	fields := domain.FieldErrors(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRegister_Duplicate(t *testing.T) {
	uc, _ := newUseCase(t)
	register(t, uc)
	_, err := uc.Register(context.Background(), RegisterInput{Username: "jane", Email: "other@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLogin(t *testing.T) {
	uc, _ := newUseCase(t)
	registered := register(t, uc)

	res, err := uc.Login(context.Background(), LoginInput{Email: "JANE@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, res.User.ID)
	assert.NotEqual(t, registered.Session.ID, res.Session.ID)

	_, err = uc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogout_RevokesToken(t *testing.T) {
	uc, _ := newUseCase(t)
	res := register(t, uc)

	require.NoError(t, uc.Logout(context.Background(), res.Session.ID))
	_, err := uc.Authenticate(context.Background(), res.Token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, uc.Logout(context.Background(), ""), domain.ErrUnauthorized)
}

func TestAuthenticate_RejectsTamperedTokens(t *testing.T) {
	uc, _ := newUseCase(t)
	res := register(t, uc)

	_, err := uc.Authenticate(context.Background(), res.Token+"x")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           res.User.ID,
		SessionID:        res.Session.ID,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "taskboard"},
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = uc.Authenticate(context.Background(), signed)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestAuthenticate_RejectsForeignSession(t *testing.T) {
	uc, _ := newUseCase(t)
	res := register(t, uc)

	token, err := uc.sign(&domain.Session{
		ID:        res.Session.ID,
		UserID:    "someone-else",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = uc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	uc, mr := newUseCase(t)
	res := register(t, uc)

	mr.FastForward(2 * time.Hour)
	_, err := uc.Authenticate(context.Background(), res.Token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
