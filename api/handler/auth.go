package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/pkg/logger"
	authUC "github.com/fastygo/taskboard/usecase/auth"
)

type AuthService interface {
	Register(ctx context.Context, in authUC.RegisterInput) (*authUC.Result, error)
	Login(ctx context.Context, in authUC.LoginInput) (*authUC.Result, error)
	Logout(ctx context.Context, sessionID string) error
}

type AuthHandler struct {
	baseHandler
	uc AuthService
}

func NewAuthHandler(uc AuthService, opts Options) *AuthHandler {
	return &AuthHandler{baseHandler: newBaseHandler(opts), uc: uc}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Register(stdCtx, authUC.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, authResponse(result))
}

// @Summary Log in with email and password
// @Tags auth
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Login(stdCtx, authUC.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, authResponse(result))
}

// @Summary Revoke the current session
// @Tags auth
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx, session.ID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	logger.WithRequestID(stdCtx, h.logger).Info("user logged out", zap.String("user_id", session.UserID))
	h.respondJSON(ctx, http.StatusOK, transport.MessageResponse{Message: "Logged out"})
}

func authResponse(result *authUC.Result) transport.AuthResponse {
	return transport.AuthResponse{User: result.User, Token: result.Token, ExpiresAt: result.ExpiresAt}
}
