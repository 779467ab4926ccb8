package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/csvrepair/internal/core"
)

// withRequestMeta attaches the client IP and User-Agent to ctx so the
// service can store them with the repair run.
func withRequestMeta(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithRequestMeta(ctx, core.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
}
