package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
)

// Options are shared by every handler.
type Options struct {
	Adapter *httpcontext.Adapter
	Logger  *zap.Logger
	// Debug exposes internal error detail in responses.
	Debug bool
}

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
	debug   bool
}

func newBaseHandler(opts Options) baseHandler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Adapter == nil {
		opts.Adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: opts.Adapter, logger: opts.Logger, debug: opts.Debug}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

// session returns the caller's session or writes a 401 and returns nil.
func (h baseHandler) session(ctx *fasthttp.RequestCtx) *domain.Session {
	session, ok := ctx.UserValue(httpcontext.UserValueSession).(*domain.Session)
	if !ok || session == nil {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.ErrorResponse{
			Message: "No token, authorization denied",
			Code:    string(domain.ErrCodeUnauthorized),
		})
		return nil
	}
	return session
}

func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{
			Message: domain.ErrInvalidPayload.Message,
			Code:    string(domain.ErrCodeInvalid),
		})
		return false
	}
	return true
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, code := mapError(err)
	resp := transport.ErrorResponse{
		Message: publicMessage(err, status),
		Code:    string(code),
		Errors:  domain.FieldErrors(err),
	}
	if status >= http.StatusInternalServerError {
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
		if h.debug {
			resp.Error = err.Error()
		}
	}
	h.respondJSON(ctx, status, resp)
}

func mapError(err error) (int, domain.ErrorCode) {
	switch domain.CodeOf(err) {
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, domain.ErrCodeUnauthorized
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, domain.ErrCodeForbidden
	case domain.ErrCodeInvalid:
		return http.StatusBadRequest, domain.ErrCodeInvalid
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, domain.ErrCodeNotFound
	case domain.ErrCodeConflict:
		return http.StatusConflict, domain.ErrCodeConflict
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
}

// publicMessage never leaks wrapped causes; those go to the log and the debug field.
func publicMessage(err error, status int) string {
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Message != "" {
		return dErr.Message
	}
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
