package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/domain"
	appLogger "github.com/fastygo/taskboard/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	keySession    Key = "session"
)

// UserValueSession is the fasthttp user value under which middleware stores the session.
const UserValueSession = "session"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach creates a context with the adapter timeout carrying the request id and, once the
// auth middleware has run, the caller's session.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if session, ok := ctx.UserValue(UserValueSession).(*domain.Session); ok && session != nil {
		stdCtx = WithSession(stdCtx, session)
	}

	return stdCtx, cancel
}

// WithSession stores the authenticated session in ctx.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, keySession, session)
}

// SessionFrom returns the authenticated session carried by ctx.
func SessionFrom(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(keySession).(*domain.Session)
	return session, ok && session != nil
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); header != "" {
		return header
	}
	return uuid.NewString()
}
