package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
)

// ProfilePath is where avatars are uploaded.
const ProfilePath = "/api/users/profile"

// RequestErrorHandler answers requests that fasthttp rejects before routing, such as a
// body over the server limit. On the profile route that can only be an oversized avatar,
// so it gets the same 400 as one caught by the upload checks.
func RequestErrorHandler(opts Options) func(*fasthttp.RequestCtx, error) {
	h := newBaseHandler(opts)
	return func(ctx *fasthttp.RequestCtx, err error) {
		if !errors.Is(err, fasthttp.ErrBodyTooLarge) {
			h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{
				Message: "malformed request",
				Code:    string(domain.ErrCodeInvalid),
			})
			return
		}
		if string(ctx.Path()) == ProfilePath {
			h.respondError(ctx, context.Background(), domain.ErrAvatarTooLarge)
			return
		}
		h.respondJSON(ctx, http.StatusRequestEntityTooLarge, transport.ErrorResponse{
			Message: "request body too large",
			Code:    string(domain.ErrCodeInvalid),
		})
	}
}
