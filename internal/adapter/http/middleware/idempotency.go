package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/iho/walletledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header clients send to make title and
	// wallet mutations safe to retry.
	IdempotencyKeyHeader = "Idempotency-Key"

	// ReplayHeader marks responses served from the idempotency store.
	ReplayHeader = "X-Idempotency-Replay"

	idempotencyTTL = 24 * time.Hour

	// inFlightMarker is what the store holds while the first request with a
	// key is still being processed.
	inFlightMarker = "processing"
)

// IdempotencyMiddleware replays stored responses for repeated mutation
// requests carrying the same Idempotency-Key.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store}
}

// Wrap applies idempotency checking to mutating requests. Requests without a
// key pass through untouched.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		claimed, stored, err := m.store.CheckAndSet(r.Context(), key, nil, idempotencyTTL)
		if err != nil {
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if claimed && stored != nil && string(stored) != inFlightMarker {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(ReplayHeader, "true")
			w.Write(stored)
			return
		}

		rec := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(rec, r)

		// Failed mutations are not memoized, so the client may retry the
		// same key after fixing the request.
		if rec.statusCode >= 200 && rec.statusCode < 300 {
			m.store.Update(r.Context(), key, rec.body.Bytes(), idempotencyTTL)
		}
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
