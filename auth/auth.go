package auth

import (
	"context"
	"net/http"
)

// UserHeader is set by the authenticating proxy in front of the dashboards.
const UserHeader = "X-Explorer-User"

type contextKey struct {
	name string
}

var userKey = &contextKey{"user"}

func WithContextUser(ctx context.Context, user string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userKey, user)
}

func ContextUser(ctx context.Context) string {
	if ctx != nil {
		if val, ok := ctx.Value(userKey).(string); ok {
			return val
		}

	}
	return ""
}

// NewUserHandler copies the proxy supplied user into the request context.
func NewUserHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := r.Header.Get(UserHeader); user != "" {
			r = r.WithContext(WithContextUser(r.Context(), user))
		}
		handler.ServeHTTP(w, r)
	})
}
