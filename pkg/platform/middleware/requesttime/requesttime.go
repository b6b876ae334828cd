// Package requesttime captures one "now" per HTTP request so audit entries
// and domain timestamps written during a single operation agree.
package requesttime

import (
	"net/http"
	"time"

	"membergate/pkg/requestcontext"
)

// Middleware stores the current time in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
