package middleware

import "net/http"

// NewMaxBodySizeHandler rejects request bodies larger than limit bytes.
// A Content-Length above limit gets 413 before the next handler runs;
// otherwise the body is wrapped in http.MaxBytesReader so a streaming body
// fails on read once it crosses the limit.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
