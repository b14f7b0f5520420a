package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
)

// SessionResolver turns a bearer token into the live session it refers to.
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// Auth rejects requests without a valid session and stores the session as a user value
// for handlers.
func Auth(resolver SessionResolver, timeout time.Duration, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token := bearerToken(ctx)
			if token == "" {
				unauthorized(ctx, "No token, authorization denied")
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), timeout)
			session, err := resolver.Authenticate(stdCtx, token)
			cancel()
			if err != nil {
				if !domain.IsClientError(err) {
					logger.Error("session lookup failed", zap.Error(err))
					ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
					writeMessage(ctx, "authentication temporarily unavailable", "")
					return
				}
				logger.Debug("rejected token", zap.Error(err))
				unauthorized(ctx, "Token is not valid")
				return
			}

			ctx.SetUserValue(httpcontext.UserValueSession, session)
			next(ctx)
		}
	}
}

func bearerToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	writeMessage(ctx, message, string(domain.ErrCodeUnauthorized))
}

func writeMessage(ctx *fasthttp.RequestCtx, message, code string) {
	ctx.SetContentType("application/json")
	body := map[string]string{"message": message}
	if code != "" {
		body["code"] = code
	}
	_ = json.NewEncoder(ctx).Encode(body)
}
