package httpapi

import (
	"context"
	"net/http"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// identity reads the trusted X-User-ID header into the request context.
// Authentication itself happens upstream; an empty header surfaces later as
// a 401 from the service layer.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), userIDKey, r.Header.Get("X-User-ID"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
