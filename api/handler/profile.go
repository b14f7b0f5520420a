package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase"
)

const avatarField = "avatar"

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, fields map[string]string, avatar *usecase.Avatar) (*domain.User, error)
}

type ProfileHandler struct {
	baseHandler
	uc ProfileService
}

func NewProfileHandler(uc ProfileService, opts Options) *ProfileHandler {
	return &ProfileHandler{baseHandler: newBaseHandler(opts), uc: uc}
}

// @Summary Get the caller's profile
// @Tags users
// @Router /api/users/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, session.UserID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}

// @Summary Update the caller's profile (JSON or multipart with an avatar file)
// @Tags users
// @Router /api/users/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		fields map[string]string
		avatar *usecase.Avatar
		err    error
	)
	if isMultipart(ctx) {
		fields, avatar, err = readMultipart(ctx)
	} else {
		fields, err = transport.DecodeProfileFields(ctx.PostBody())
	}
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if avatar != nil {
		if closer, ok := avatar.Content.(io.Closer); ok {
			defer closer.Close()
		}
	}

	user, err := h.uc.UpdateProfile(stdCtx, session.UserID, fields, avatar)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.ProfileResponse{User: user, Message: "Profile updated successfully"})
}

func isMultipart(ctx *fasthttp.RequestCtx) bool {
	return bytes.HasPrefix(ctx.Request.Header.ContentType(), []byte("multipart/form-data"))
}

// readMultipart collects the text fields and at most one avatar file. The file is read
// into memory by fasthttp, bounded by the server's body size limit.
func readMultipart(ctx *fasthttp.RequestCtx) (map[string]string, *usecase.Avatar, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInvalid, "invalid multipart form", err)
	}

	fields := make(map[string]string, len(form.Value))
	for key, values := range form.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	files := form.File[avatarField]
	if len(files) == 0 {
		return fields, nil, nil
	}
	avatar, err := openAvatar(files[0])
	if err != nil {
		return nil, nil, err
	}
	return fields, avatar, nil
}

func openAvatar(fh *multipart.FileHeader) (*usecase.Avatar, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "unreadable avatar file", err)
	}
	return &usecase.Avatar{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     file,
	}, nil
}
