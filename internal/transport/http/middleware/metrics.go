package middleware

import (
	"net/http"
	"time"
)

type RequestRecorder interface {
	Record(status int, duration time.Duration)
}

func Metrics(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			rec.Record(recorder.status, time.Since(start))
		})
	}
}
