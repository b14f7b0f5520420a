package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
)

// Config controls token signing and session lifetime.
type Config struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	HashParams *argon2id.Params
}

// Claims is the JWT payload. SessionID ties a token to a revocable session.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is returned by Register and Login.
type Result struct {
	User      *domain.User
	Session   *domain.Session
	Token     string
	ExpiresAt time.Time
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	cfg      Config
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, cfg Config, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.HashParams == nil {
		cfg.HashParams = argon2id.DefaultParams
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		logger:   log,
	}
}

func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := domain.ValidateStruct(in); err != nil {
		return nil, err
	}

	hash, err := argon2id.CreateHash(in.Password, uc.cfg.HashParams)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("user registered", zap.String("user_id", user.ID))
	return uc.startSession(ctx, user)
}

func (uc *UseCase) Login(ctx context.Context, in LoginInput) (*Result, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := domain.ValidateStruct(in); err != nil {
		return nil, err
	}

	user, err := uc.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := argon2id.ComparePasswordAndHash(in.Password, user.PasswordHash)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to verify password", err)
	}
	if !match {
		return nil, domain.ErrInvalidCredentials
	}

	return uc.startSession(ctx, user)
}

// Logout revokes the session so tokens that reference it stop working.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrUnauthorized
	}
	return uc.sessions.Delete(ctx, sessionID)
}

// Authenticate verifies a bearer token and returns the live session it refers to.
func (uc *UseCase) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return []byte(uc.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	if uc.cfg.Issuer != "" && !claims.VerifyIssuer(uc.cfg.Issuer, true) {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid token issuer")
	}
	if claims.SessionID == "" || claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := uc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrUnauthorized
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (uc *UseCase) startSession(ctx context.Context, user *domain.User) (*Result, error) {
	session := domain.NewSession(uuid.NewString(), user.ID, time.Now(), uc.cfg.SessionTTL)
	session.UserAgent, _ = ctx.Value(httpcontext.KeyUserAgent).(string)
	session.RemoteAddr, _ = ctx.Value(httpcontext.KeyRemoteAddr).(string)
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	token, err := uc.sign(session)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}

	return &Result{
		User:      user,
		Session:   session,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (uc *UseCase) sign(session *domain.Session) (string, error) {
	claims := Claims{
		UserID:    session.UserID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    uc.cfg.Issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.Secret))
}
