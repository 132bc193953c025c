package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey struct{ name string }

var (
	userIDKey = contextKey{"user_id"}
	tierKey   = contextKey{"tier"}
)

// WithIdentity returns a context with the authenticated user id and viewer
// tier set. Handlers read these via GetUserID and GetTier.
func WithIdentity(ctx context.Context, userID, tier string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, tierKey, tier)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetTier returns the viewer tier from context and true if set; otherwise "", false.
func GetTier(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tierKey).(string)
	return v, ok
}

// ClientIP returns the request's client address, preferring X-Forwarded-For
// (first hop) when the server sits behind a proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DeviceType classifies the request's device from the X-Device-Type header or,
// failing that, the User-Agent. Returns "" when nothing is known.
func DeviceType(r *http.Request) string {
	if dt := r.Header.Get("X-Device-Type"); dt != "" {
		return strings.ToLower(strings.TrimSpace(dt))
	}
	ua := strings.ToLower(r.UserAgent())
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"), strings.Contains(ua, "iphone"):
		return "mobile"
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		return "tablet"
	default:
		return "desktop"
	}
}
