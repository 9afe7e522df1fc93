package logger

import (
	"net/http"
)

const maxInboundRequestIDLength = 64

// RequestIDMiddleware puts a request id on the request context and echoes it in
// the response. Callers such as the sentinel and the adapters send their own id
// in X-Request-ID so one pulse can be followed across components; anything
// unusable is replaced with a fresh id.
func RequestIDMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if inbound := r.Header.Get(ReqIDHeader); validInboundRequestID(inbound) {
			ctx = SetRequestID(ctx, inbound)
		} else {
			ctx = WithRequestID(ctx)
		}

		if reqID, ok := GetRequestID(ctx); ok && len(reqID) > 0 {
			w.Header().Set(ReqIDHeader, reqID)
		}

		handler.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validInboundRequestID(id string) bool {
	if id == "" || len(id) > maxInboundRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
