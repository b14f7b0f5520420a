package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func TestRequestErrorHandler(t *testing.T) {
	handle := RequestErrorHandler(Options{})

	tests := []struct {
		name    string
		path    string
		err     error
		status  int
		message string
	}{
		{"oversized avatar", ProfilePath, fasthttp.ErrBodyTooLarge, http.StatusBadRequest, "File is too large. Max size is 5MB"},
		{"oversized body elsewhere", "/api/todos", fasthttp.ErrBodyTooLarge, http.StatusRequestEntityTooLarge, "request body too large"},
		{"malformed request", ProfilePath, errors.New("cannot parse headers"), http.StatusBadRequest, "malformed request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rc fasthttp.RequestCtx
			rc.Request.SetRequestURI(tt.path)
			handle(&rc, tt.err)

			assert.Equal(t, tt.status, rc.Response.StatusCode())
			body := decodeBody(t, &rc)
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, "INVALID", body["code"])
		})
	}
}

func TestRequestErrorHandler_ServerRejectsOversizedAvatar(t *testing.T) {
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{
		Handler:            func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(http.StatusOK) },
		MaxRequestBodySize: 1024,
		ErrorHandler:       RequestErrorHandler(Options{}),
	}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { _ = server.Shutdown() })

	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://taskboard" + ProfilePath)
	req.Header.SetMethod(http.MethodPut)
	req.Header.SetContentType("multipart/form-data; boundary=avatar")
	req.SetBody(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, client.Do(req, resp))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "File is too large. Max size is 5MB", body["message"])
}
